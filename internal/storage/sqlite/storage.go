// Package sqlite persists accounts and the catalog in a SQLite database
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/storage"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Config holds SQLite settings
type Config struct {
	// Path is the database file, or MemoryPath
	Path string
	// BusyTimeout is how long a writer waits on a locked database
	BusyTimeout time.Duration
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{
		Path:        "data/shop.db",
		BusyTimeout: 5 * time.Second,
	}
}

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database and applies the schema
func New(ctx context.Context, cfg Config) (*Storage, error) {
	dsn := cfg.Path
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
			cfg.Path, cfg.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	s := NewWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing handle without applying the schema (for testing)
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Migrate creates the tables if they do not exist
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) GetAccount(ctx context.Context, nickname string) (*model.Account, error) {
	var (
		account            model.Account
		createdAt, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT nickname, credits, created_at, updated_at FROM accounts WHERE nickname = ?`,
		nickname,
	).Scan(&account.Nickname, &account.Credits, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", nickname, err)
	}
	account.CreatedAt = time.Unix(0, createdAt).UTC()
	account.UpdatedAt = time.Unix(0, updated).UTC()

	items, err := ownedItems(ctx, s.db, nickname)
	if err != nil {
		return nil, err
	}
	account.OwnedItems = items
	account.Normalize()
	return &account, nil
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	return withTx(ctx, s.db, func(tx dbtx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (nickname, credits, created_at, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(nickname) DO UPDATE SET credits = excluded.credits, updated_at = excluded.updated_at
		`, account.Nickname, account.Credits, account.CreatedAt.UnixNano(), account.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("upsert account %q: %w", account.Nickname, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM account_items WHERE nickname = ?`, account.Nickname); err != nil {
			return fmt.Errorf("clear items for %q: %w", account.Nickname, err)
		}
		for _, key := range account.OwnedItems {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO account_items (nickname, item_key) VALUES (?, ?)`,
				account.Nickname, key,
			); err != nil {
				return fmt.Errorf("insert item %q for %q: %w", key, account.Nickname, err)
			}
		}
		return nil
	})
}

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func ownedItems(ctx context.Context, q dbtx, nickname string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item_key FROM account_items WHERE nickname = ? ORDER BY item_key`, nickname)
	if err != nil {
		return nil, fmt.Errorf("list items for %q: %w", nickname, err)
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

// Catalog operations

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_key, name, price FROM items_master ORDER BY item_key`)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.Key, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrCatalogNotLoaded
	}
	return items, nil
}

func (s *Storage) SaveCatalog(ctx context.Context, items []model.Item) error {
	return withTx(ctx, s.db, func(tx dbtx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items_master`); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}
		for _, item := range items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO items_master (item_key, name, price) VALUES (?, ?, ?)`,
				item.Key, item.Name, item.Price,
			); err != nil {
				return fmt.Errorf("insert catalog item %q: %w", item.Key, err)
			}
		}
		return nil
	})
}
