// test package includes common methods to run tests.
// It should not be included in release builds
package test

import (
	"testing"
	"time"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/db"
	"github.com/stretchr/testify/require"
)

const (
	// WaitFor bounds the polling of Eventually style assertions.
	WaitFor = 2 * time.Second
	Tick    = time.Millisecond
)

// Config returns the unit test configuration running in the given concurrency mode.
func Config(mode string) *config.Config {
	cfg := config.NewTestConfig()
	cfg.ConcurrencyMode = mode
	return cfg
}

// OpenDB opens an empty database for the test.
func OpenDB(t *testing.T, cfg *config.Config) *db.DB {
	t.Helper()
	d, err := db.Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}
