package router

import (
	"errors"
	"log/slog"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/protocol"
)

// Wire error codes
const (
	CodeOK                  = "OK" // metrics label only, never sent
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodeItemNotFound        = "ITEM_NOT_FOUND"
	CodeAlreadyOwned        = "ALREADY_OWNED"
	CodeNotOwned            = "NOT_OWNED"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	CodeMalformedRequest    = "MALFORMED_REQUEST"
	CodeInternalError       = "INTERNAL_ERROR"
)

type wireError struct {
	code    string
	message string
	level   slog.Level
}

// toWireError maps a domain error to its code, client message and log level.
// Storage details never reach the client.
func toWireError(err error) wireError {
	switch {
	case errors.Is(err, model.ErrStorageFault):
		return wireError{CodeInternalError, "internal error, please retry", slog.LevelError}
	case errors.Is(err, model.ErrMalformedRequest),
		errors.Is(err, model.ErrInvalidNickname):
		return wireError{CodeMalformedRequest, err.Error(), slog.LevelWarn}
	case errors.Is(err, model.ErrNotAuthenticated):
		return wireError{CodeNotAuthenticated, err.Error(), slog.LevelInfo}
	case errors.Is(err, model.ErrAccountNotFound):
		return wireError{CodeAccountNotFound, err.Error(), slog.LevelInfo}
	case errors.Is(err, model.ErrItemNotFound):
		return wireError{CodeItemNotFound, err.Error(), slog.LevelInfo}
	case errors.Is(err, model.ErrAlreadyOwned):
		return wireError{CodeAlreadyOwned, err.Error(), slog.LevelInfo}
	case errors.Is(err, model.ErrNotOwned):
		return wireError{CodeNotOwned, err.Error(), slog.LevelInfo}
	case errors.Is(err, model.ErrInsufficientCredits):
		return wireError{CodeInsufficientCredits, err.Error(), slog.LevelInfo}
	default:
		return wireError{CodeInternalError, "internal error, please retry", slog.LevelError}
	}
}

func (e wireError) response() protocol.Response {
	return protocol.Error(e.code, e.message)
}
