package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/creditshop/internal/metrics"
	"github.com/mcoot/creditshop/internal/middleware"
)

// Metrics counts API requests by route template, so /accounts/{nickname}
// stays one series no matter how many players exist
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := middleware.WrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.RecordHTTPRequest(r.Method, route, wrapped.Status())
		})
	}
}
