package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	accounts map[string]*model.Account
	catalog  []model.Item
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts: make(map[string]*model.Account),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) GetAccount(ctx context.Context, nickname string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[nickname]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account.Clone(), nil
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Nickname] = account.Clone()
	return nil
}

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

// Catalog operations

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil, model.ErrCatalogNotLoaded
	}
	return slices.Clone(s.catalog), nil
}

func (s *Storage) SaveCatalog(ctx context.Context, items []model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = slices.Clone(items)
	return nil
}
