package storage

import (
	"context"

	"github.com/mcoot/creditshop/internal/model"
)

// Storage defines the interface for data persistence.
// Implementations must be durable once a Save call returns nil.
type Storage interface {
	// Account operations
	GetAccount(ctx context.Context, nickname string) (*model.Account, error)
	SaveAccount(ctx context.Context, account *model.Account) error
	CountAccounts(ctx context.Context) (int, error)

	// Catalog operations
	GetCatalog(ctx context.Context) ([]model.Item, error)
	SaveCatalog(ctx context.Context, items []model.Item) error
}
