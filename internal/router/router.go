// Package router turns decoded session requests into ledger operations.
//
// Each connection is either anonymous or authenticated as one nickname.
// Only login and quit are accepted while anonymous; anonymous requests never
// reach the ledger except through login.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/creditshop/internal/metrics"
	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/protocol"
	"github.com/mcoot/creditshop/internal/services/ledger"
	"github.com/mcoot/creditshop/internal/session"
)

// Ledger is the subset of the account ledger the router drives
type Ledger interface {
	GetOrCreate(ctx context.Context, nickname string) (*ledger.LoginResult, error)
	Purchase(ctx context.Context, nickname, itemKey string) (*model.Account, error)
	Sell(ctx context.Context, nickname, itemKey string) (*model.Account, error)
	Get(ctx context.Context, nickname string) (*model.Account, error)
}

// Catalog lists the items on sale
type Catalog interface {
	List() []model.Item
}

// Result is the outcome of one request
type Result struct {
	Response protocol.Response
	// Close is set when the connection should be closed after writing Response
	Close bool
}

// Router dispatches requests for all connections
type Router struct {
	ledger   Ledger
	catalog  Catalog
	sessions *session.Table
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a new Router
func New(ledger Ledger, catalog Catalog, sessions *session.Table, m *metrics.Metrics, logger *slog.Logger) *Router {
	return &Router{
		ledger:   ledger,
		catalog:  catalog,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}
}

// HandleFrame decodes a raw frame and routes it. A frame that does not
// decode yields a MALFORMED_REQUEST response and leaves the session as is.
func (r *Router) HandleFrame(ctx context.Context, connID string, frame []byte) Result {
	req, err := protocol.DecodeRequest(frame)
	if err != nil {
		return Result{Response: r.fail(ctx, connID, "invalid", err, time.Now())}
	}
	return r.Handle(ctx, connID, req)
}

// Handle routes one decoded request for the given connection
func (r *Router) Handle(ctx context.Context, connID string, req protocol.Request) Result {
	start := time.Now()

	switch req.Action {
	case protocol.ActionLogin:
		resp, err := r.login(ctx, connID, req)
		return r.respond(ctx, connID, req.Action, start, resp, err)
	case protocol.ActionQuit:
		r.metrics.RecordRequest(req.Action, CodeOK, time.Since(start))
		return Result{Response: protocol.OK("goodbye"), Close: true}
	case protocol.ActionLogout, protocol.ActionBuy, protocol.ActionSell,
		protocol.ActionBalance, protocol.ActionListItems:
	default:
		err := fmt.Errorf("%w: unknown action %q", model.ErrMalformedRequest, req.Action)
		return Result{Response: r.fail(ctx, connID, "unknown", err, start)}
	}

	nickname, ok := r.sessions.Resolve(connID)
	if !ok {
		return Result{Response: r.fail(ctx, connID, req.Action, model.ErrNotAuthenticated, start)}
	}

	var resp protocol.Response
	var err error
	switch req.Action {
	case protocol.ActionLogout:
		resp, err = r.logout(connID, nickname)
	case protocol.ActionBuy:
		resp, err = r.accountResponse(r.ledger.Purchase(ctx, nickname, req.Target()))
	case protocol.ActionSell:
		resp, err = r.accountResponse(r.ledger.Sell(ctx, nickname, req.Target()))
	case protocol.ActionBalance:
		resp, err = r.accountResponse(r.ledger.Get(ctx, nickname))
	case protocol.ActionListItems:
		resp = protocol.OK("")
		resp.Catalog = r.catalog.List()
	}
	if err != nil {
		return Result{Response: r.fail(ctx, connID, req.Action, err, start, slog.String("nickname", nickname))}
	}
	return r.respond(ctx, connID, req.Action, start, resp, nil)
}

func (r *Router) login(ctx context.Context, connID string, req protocol.Request) (protocol.Response, error) {
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return protocol.Response{}, model.ErrInvalidNickname
	}

	result, err := r.ledger.GetOrCreate(ctx, nickname)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := r.sessions.Bind(connID, nickname); err != nil {
		return protocol.Response{}, err
	}

	r.logger.InfoContext(ctx, "session authenticated",
		slog.String("conn_id", connID),
		slog.String("nickname", nickname),
		slog.Int("bonus", result.Bonus),
		slog.Bool("created", result.Created))

	resp := protocol.OK(fmt.Sprintf("welcome, %s", nickname))
	resp.AccountView = protocol.NewAccountView(result.Account)
	resp.Catalog = r.catalog.List()
	resp.Bonus = &result.Bonus
	resp.Created = result.Created
	return resp, nil
}

func (r *Router) logout(connID, nickname string) (protocol.Response, error) {
	if !r.sessions.Unbind(connID) {
		return protocol.Response{}, model.ErrNotAuthenticated
	}
	r.logger.Info("session logged out",
		slog.String("conn_id", connID),
		slog.String("nickname", nickname))
	return protocol.OK("logged out"), nil
}

func (r *Router) accountResponse(account *model.Account, err error) (protocol.Response, error) {
	if err != nil {
		return protocol.Response{}, err
	}
	resp := protocol.OK("")
	resp.AccountView = protocol.NewAccountView(account)
	return resp, nil
}

func (r *Router) respond(ctx context.Context, connID, action string, start time.Time, resp protocol.Response, err error) Result {
	if err != nil {
		return Result{Response: r.fail(ctx, connID, action, err, start)}
	}
	r.metrics.RecordRequest(action, CodeOK, time.Since(start))
	return Result{Response: resp}
}

// fail logs err at its level, records it and builds the error response
func (r *Router) fail(ctx context.Context, connID, action string, err error, start time.Time, attrs ...slog.Attr) protocol.Response {
	we := toWireError(err)
	if errors.Is(err, model.ErrStorageFault) {
		r.metrics.RecordStorageFault()
	}
	r.metrics.RecordRequest(action, we.code, time.Since(start))

	attrs = append(attrs,
		slog.String("conn_id", connID),
		slog.String("action", action),
		slog.String("code", we.code),
		slog.String("error", err.Error()))
	r.logger.LogAttrs(ctx, we.level, "request failed", attrs...)

	return we.response()
}
