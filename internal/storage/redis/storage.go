package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) GetAccount(ctx context.Context, nickname string) (*model.Account, error) {
	data, err := s.client.Get(ctx, s.accountKey(nickname)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("decode account %q: %w", nickname, err)
	}
	account.Normalize()
	return &account, nil
}

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// MULTI/EXEC so the record and the index never disagree
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accountKey(account.Nickname), data, 0)
		pipe.SAdd(ctx, s.accountIndexKey(), account.Nickname)
		return nil
	})
	return err
}

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.accountIndexKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Catalog operations

func (s *Storage) GetCatalog(ctx context.Context) ([]model.Item, error) {
	fields, err := s.client.HGetAll(ctx, s.catalogKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrCatalogNotLoaded
	}

	items := make([]model.Item, 0, len(fields))
	for key, val := range fields {
		var item model.Item
		if err := json.Unmarshal([]byte(val), &item); err != nil {
			return nil, fmt.Errorf("decode catalog item %q: %w", key, err)
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *Storage) SaveCatalog(ctx context.Context, items []model.Item) error {
	values := make([]any, 0, len(items)*2)
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		values = append(values, item.Key, string(data))
	}

	// Replace the whole hash atomically
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.catalogKey())
		if len(values) > 0 {
			pipe.HSet(ctx, s.catalogKey(), values...)
		}
		return nil
	})
	return err
}
