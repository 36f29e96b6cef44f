package factory

import (
	"time"

	"github.com/mcoot/creditshop/internal/dependencies/mocks"
	"github.com/mcoot/creditshop/internal/metrics"
	"github.com/mcoot/creditshop/internal/model"
	"github.com/mcoot/creditshop/internal/services/ledger"
	"github.com/mcoot/creditshop/internal/storage/memory"
	"github.com/mcoot/creditshop/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, ledger.DefaultConfig(), metrics.New(false), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestCatalog installs the built-in items (sword 50, shield 40, potion 10)
func (t *TestApp) LoadTestCatalog() error {
	return t.CatalogService.LoadItems(model.DefaultItems())
}
