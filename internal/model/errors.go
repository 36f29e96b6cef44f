package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not logged in")

	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidNickname     = errors.New("nickname must not be empty")

	// Item errors
	ErrItemNotFound = errors.New("item not found")
	ErrAlreadyOwned = errors.New("item already owned")
	ErrNotOwned     = errors.New("item not owned")

	// Catalog errors
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
	ErrInvalidCatalog   = errors.New("invalid catalog definition")

	// Protocol errors
	ErrMalformedRequest = errors.New("malformed request")

	// Persistence errors
	ErrStorageFault = errors.New("storage fault")
)
