package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/storage"
)

// ErrAlreadyLoaded is returned when a second load is attempted; the catalog
// is immutable once the server is running.
var ErrAlreadyLoaded = errors.New("catalog already loaded")

// Definition is the on-disk YAML shape of a catalog file
type Definition struct {
	Items []model.Item `yaml:"items"`
}

type snapshot struct {
	byKey map[string]model.Item
	list  []model.Item // sorted by key
}

// Service holds the item catalog. Reads are lock-free after Load.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger

	current atomic.Pointer[snapshot]
}

// New creates a new catalog Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// LoadFromStorage loads the catalog from storage, seeding the built-in
// default items if storage has none yet
func (s *Service) LoadFromStorage(ctx context.Context) error {
	items, err := s.storage.GetCatalog(ctx)
	if errors.Is(err, model.ErrCatalogNotLoaded) {
		s.logger.Info("catalog empty, seeding defaults")
		items = model.DefaultItems()
		if err := s.storage.SaveCatalog(ctx, items); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	return s.loadItems(items)
}

// LoadFromFile parses a YAML catalog definition, writes it to storage and
// installs it
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	items, err := ParseDefinition(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := s.checkNoRemovals(ctx, items); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	// Save to storage so the persisted catalog matches what is served
	if err := s.storage.SaveCatalog(ctx, items); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return s.loadItems(items)
}

// checkNoRemovals refuses a definition that drops keys from the stored
// catalog: accounts may still own those items and could never sell them.
func (s *Service) checkNoRemovals(ctx context.Context, items []model.Item) error {
	stored, err := s.storage.GetCatalog(ctx)
	if errors.Is(err, model.ErrCatalogNotLoaded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		keep[item.Key] = struct{}{}
	}
	var removed []string
	for _, item := range stored {
		if _, ok := keep[item.Key]; !ok {
			removed = append(removed, item.Key)
		}
	}
	if len(removed) > 0 {
		sort.Strings(removed)
		s.logger.Warn("catalog definition removes stored items", slog.Any("items", removed))
		return fmt.Errorf("%w: definition removes stored items %v", model.ErrInvalidCatalog, removed)
	}
	return nil
}

// LoadItems directly installs a set of items (useful for testing)
func (s *Service) LoadItems(items []model.Item) error {
	return s.loadItems(items)
}

// ParseDefinition decodes and validates a YAML catalog definition
func ParseDefinition(r io.Reader) ([]model.Item, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidCatalog, err)
	}
	if err := validate(def.Items); err != nil {
		return nil, err
	}
	return def.Items, nil
}

func validate(items []model.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items defined", model.ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		if _, dup := seen[item.Key]; dup {
			return fmt.Errorf("%w: duplicate item key %q", model.ErrInvalidCatalog, item.Key)
		}
		seen[item.Key] = struct{}{}
	}
	return nil
}

func (s *Service) loadItems(items []model.Item) error {
	if err := validate(items); err != nil {
		return err
	}

	snap := &snapshot{
		byKey: make(map[string]model.Item, len(items)),
		list:  make([]model.Item, len(items)),
	}
	copy(snap.list, items)
	sort.Slice(snap.list, func(i, j int) bool { return snap.list[i].Key < snap.list[j].Key })
	for _, item := range snap.list {
		snap.byKey[item.Key] = item
	}

	if !s.current.CompareAndSwap(nil, snap) {
		return ErrAlreadyLoaded
	}
	s.logger.Info("catalog loaded", slog.Int("items", len(snap.list)))
	return nil
}

// Get returns the item with the given key
func (s *Service) Get(key string) (model.Item, error) {
	snap := s.current.Load()
	if snap == nil {
		return model.Item{}, model.ErrCatalogNotLoaded
	}
	item, ok := snap.byKey[key]
	if !ok {
		return model.Item{}, model.ErrItemNotFound
	}
	return item, nil
}

// List returns every item, sorted by key
func (s *Service) List() []model.Item {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]model.Item, len(snap.list))
	copy(out, snap.list)
	return out
}

// IsLoaded returns whether the catalog has been loaded
func (s *Service) IsLoaded() bool {
	return s.current.Load() != nil
}
