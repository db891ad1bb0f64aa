package factory

import (
	"time"

	"github.com/mcoot/pointsbot/internal/dependencies/mocks"
	"github.com/mcoot/pointsbot/internal/storage"
	"github.com/mcoot/pointsbot/internal/storage/memory"
	"github.com/mcoot/pointsbot/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App over memory storage with a mocked clock
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(Config{})
}

// NewTestAppWithConfig is NewTestApp with explicit router and ledger options
func NewTestAppWithConfig(cfg Config) *TestApp {
	return NewTestAppWithStorage(memory.New(), cfg)
}

// NewTestAppWithStorage wires a test app over store, typically a wrapper
// that injects failures
func NewTestAppWithStorage(store storage.Storage, cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app, err := newWithDependencies(store, mockClock, cfg, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
