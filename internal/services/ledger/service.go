package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/creditshop/internal/dependencies/clock"
	"github.com/mcoot/creditshop/internal/dependencies/random"
	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/storage"
)

// Catalog is the read-only item lookup the ledger prices against
type Catalog interface {
	Get(key string) (model.Item, error)
}

// Config holds ledger settings
type Config struct {
	// MinBonus and MaxBonus bound the credits granted on every login (inclusive)
	MinBonus int
	MaxBonus int
}

// DefaultConfig returns the default ledger configuration
func DefaultConfig() Config {
	return Config{
		MinBonus: 10,
		MaxBonus: 100,
	}
}

// Validate checks the bonus range. Every login must grant at least one
// credit so successive logins always increase the balance.
func (c Config) Validate() error {
	if c.MinBonus < 1 || c.MaxBonus < c.MinBonus {
		return fmt.Errorf("invalid bonus range [%d, %d]", c.MinBonus, c.MaxBonus)
	}
	return nil
}

// LoginResult is the outcome of GetOrCreate
type LoginResult struct {
	Account *model.Account
	Bonus   int
	Created bool
}

// Service is the account ledger. Mutations on one nickname are serialised;
// different nicknames proceed in parallel. Every mutation is written through
// to storage before it is reported as applied.
type Service struct {
	storage storage.Storage
	catalog Catalog
	clock   clock.Clock
	random  random.Random
	cfg     Config
	logger  *slog.Logger

	locks *lockTable
}

// New creates a new ledger Service
func New(
	storage storage.Storage,
	catalog Catalog,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage: storage,
		catalog: catalog,
		clock:   clock,
		random:  random,
		cfg:     cfg,
		logger:  logger,
		locks:   newLockTable(),
	}
}

// GetOrCreate creates the account with a random starting bonus, or adds a
// random bonus to an existing one
func (s *Service) GetOrCreate(ctx context.Context, nickname string) (*LoginResult, error) {
	if nickname == "" {
		return nil, model.ErrInvalidNickname
	}

	unlock, err := s.locks.acquire(ctx, nickname)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	bonus := random.Between(s.random, s.cfg.MinBonus, s.cfg.MaxBonus)

	account, err := s.storage.GetAccount(ctx, nickname)
	created := false
	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		account = model.NewAccount(nickname, bonus, now)
		created = true
	case err != nil:
		return nil, storageFault(err)
	default:
		account.Credits += bonus
		account.UpdatedAt = now
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, storageFault(err)
	}

	if created {
		s.logger.Info("account created",
			slog.String("nickname", nickname),
			slog.Int("credits", account.Credits))
	}

	return &LoginResult{
		Account: account.Clone(),
		Bonus:   bonus,
		Created: created,
	}, nil
}

// Purchase debits the item's price and adds it to the account
func (s *Service) Purchase(ctx context.Context, nickname, itemKey string) (*model.Account, error) {
	return s.mutate(ctx, nickname, func(account *model.Account) error {
		item, err := s.catalog.Get(itemKey)
		if err != nil {
			return err
		}
		if account.Owns(item.Key) {
			return model.ErrAlreadyOwned
		}
		if account.Credits < item.Price {
			return model.ErrInsufficientCredits
		}
		account.Credits -= item.Price
		account.AddItem(item.Key)
		return nil
	})
}

// Sell removes the item from the account and refunds half its price
func (s *Service) Sell(ctx context.Context, nickname, itemKey string) (*model.Account, error) {
	return s.mutate(ctx, nickname, func(account *model.Account) error {
		item, err := s.catalog.Get(itemKey)
		if err != nil {
			return err
		}
		if !account.RemoveItem(item.Key) {
			return model.ErrNotOwned
		}
		account.Credits += item.SellPrice()
		return nil
	})
}

// Get returns a snapshot of the account without taking its lock. The result
// may trail an in-flight mutation and is meant for display only.
func (s *Service) Get(ctx context.Context, nickname string) (*model.Account, error) {
	account, err := s.storage.GetAccount(ctx, nickname)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, err
		}
		return nil, storageFault(err)
	}
	return account, nil
}

// mutate runs a read-check-write cycle on one account under its lock.
// apply must leave the account untouched when it returns an error.
func (s *Service) mutate(ctx context.Context, nickname string, apply func(*model.Account) error) (*model.Account, error) {
	unlock, err := s.locks.acquire(ctx, nickname)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := s.storage.GetAccount(ctx, nickname)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, err
		}
		return nil, storageFault(err)
	}

	if err := apply(account); err != nil {
		return nil, err
	}
	account.UpdatedAt = s.clock.Now()

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, storageFault(err)
	}
	return account.Clone(), nil
}

func storageFault(err error) error {
	return fmt.Errorf("%w: %w", model.ErrStorageFault, err)
}
