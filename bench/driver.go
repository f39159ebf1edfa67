package bench

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/luigitni/detdb/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run executes cfg.TxsPerWorker procedures of w on each of cfg.Workers
// goroutines. Worker i draws its parameters from a generator seeded with
// cfg.Seed+i. Run stops early when ctx is done or a procedure cannot be
// prepared.
func Run(ctx context.Context, w Workload, cfg config.Bench, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Report{
		RunID:    uuid.New().String(),
		Workload: w.Name(),
		Workers:  cfg.Workers,
		Aborts:   make(map[string]int),
	}
	logger = logger.Named("bench").With(zap.String("run", r.RunID), zap.String("workload", r.Workload))
	logger.Info("starting run", zap.Int("workers", cfg.Workers), zap.Int("txs_per_worker", cfg.TxsPerWorker))

	var mu sync.Mutex
	record := func(latency time.Duration, committed bool, reason string) {
		mu.Lock()
		defer mu.Unlock()
		r.latencies = append(r.latencies, float64(latency)/float64(time.Millisecond))
		if committed {
			r.Committed++
			return
		}
		r.Aborted++
		r.Aborts[reason]++
	}

	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < cfg.Workers; i++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		g.Go(func() error {
			for n := 0; n < cfg.TxsPerWorker; n++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				sp, args := w.Next(rng)
				began := time.Now()
				if err := sp.Prepare(args...); err != nil {
					return errors.Wrapf(err, "preparing %s", sp.Name())
				}

				rs := sp.Execute()
				record(time.Since(began), rs.IsCommitted(), rs.AbortReason())
			}
			return nil
		})
	}

	err := g.Wait()
	r.Elapsed = time.Since(start)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	r.HeapAlloc = ms.HeapAlloc

	logger.Info("finished run",
		zap.Int("committed", r.Committed),
		zap.Int("aborted", r.Aborted),
		zap.Duration("elapsed", r.Elapsed),
	)
	return r, err
}
