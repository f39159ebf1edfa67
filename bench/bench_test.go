package bench

import (
	"context"
	"testing"
	"time"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, mode, workload string) (*db.DB, Workload) {
	t.Helper()
	d := test.OpenDB(t, test.Config(mode))

	w, err := Setup(d, workload)
	require.NoError(t, err)
	return d, w
}

// Random concurrent procedures under conservative locking all commit.
func TestConservativeRunsCommitEverything(t *testing.T) {
	for _, name := range []string{"tpcc", "micro"} {
		t.Run(name, func(t *testing.T) {
			d, w := setup(t, config.ModeConservative, name)
			cfg := d.Config().Bench

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			r, err := Run(ctx, w, cfg, nil)
			require.NoError(t, err)

			assert.Equal(t, cfg.Workers*cfg.TxsPerWorker, r.Committed, r.String())
			assert.Zero(t, r.Aborted, r.String())
			assert.Empty(t, r.Aborts)
			test.AssertNoLocks(t, d.LockTable())

			p50, err := r.Percentile(50)
			require.NoError(t, err)
			p99, err := r.Percentile(99)
			require.NoError(t, err)
			assert.LessOrEqual(t, p50, p99)
		})
	}
}

func TestRunStopsWithContext(t *testing.T) {
	_, w := setup(t, config.ModeConservative, "micro")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := Run(ctx, w, config.Bench{Workers: 2, TxsPerWorker: 10, Seed: 1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, r.Committed)
}

func TestSetupUnknownWorkload(t *testing.T) {
	d, err := db.Open(config.NewTestConfig(), nil)
	require.NoError(t, err)

	_, err = Setup(d, "tpch")
	assert.Error(t, err)
}

func TestReportString(t *testing.T) {
	r := &Report{
		RunID:     "run-1",
		Workload:  "micro",
		Workers:   2,
		Committed: 1200,
		Aborted:   3,
		Aborts:    map[string]int{"item 7 not found": 3},
		Elapsed:   2 * time.Second,
		latencies: []float64{1, 2, 3, 4},
	}

	out := r.String()
	assert.Contains(t, out, "run run-1: micro with 2 workers in 2s")
	assert.Contains(t, out, "committed: 1,200, aborted: 3, throughput: 600.00 tx/s")
	assert.Contains(t, out, "aborted 3 times: item 7 not found")
	assert.Contains(t, out, "max 4.000")
	assert.InDelta(t, 600, r.Throughput(), 1e-9)
}
