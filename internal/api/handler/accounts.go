package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/creditshop/internal/api/response"
	"github.com/mcoot/creditshop/internal/model"
)

// AccountReader returns account snapshots. Writes only happen over the
// session protocol.
type AccountReader interface {
	Get(ctx context.Context, nickname string) (*model.Account, error)
}

// AccountHandler handles account endpoints
type AccountHandler struct {
	accounts AccountReader
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountReader) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Get handles GET /api/v1/accounts/{nickname}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	nickname := strings.TrimSpace(mux.Vars(r)["nickname"])
	if nickname == "" {
		WriteError(w, NewInvalidRequestError("nickname is required"))
		return
	}

	account, err := h.accounts.Get(r.Context(), nickname)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AccountFromModel(account))
}
