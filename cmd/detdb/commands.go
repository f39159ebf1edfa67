package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/bench"
	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configPath  string
	mode        string
	logLevel    string
	metricsAddr string
	waitBudget  time.Duration
	workers     int
	txs         int
	seed        int64

	warehouses int
	items      int
	reads      int
	writes     int
}

// newRootCommand builds the command tree. Parsed flags are stored in opts.
func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "detdb",
		Short:         "Run deterministic locking benchmarks",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&opts.mode, "mode", "", "concurrency mode: conservative or serializable")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on")
	flags.DurationVar(&opts.waitBudget, "lock-wait-budget", 0, "maximum wait for a single lock")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "concurrent workers")
	flags.IntVarP(&opts.txs, "txs", "n", 0, "procedures per worker")
	flags.Int64Var(&opts.seed, "seed", 0, "seed of the parameter generators")

	tpcc := &cobra.Command{
		Use:   "tpcc",
		Short: "Run TPC-C NewOrder procedures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkload(cmd, opts, "tpcc")
		},
	}
	tpcc.Flags().IntVar(&opts.warehouses, "warehouses", 0, "number of warehouses")
	tpcc.Flags().IntVar(&opts.items, "items", 0, "number of items")

	micro := &cobra.Command{
		Use:   "micro",
		Short: "Run micro procedures reading and updating random items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkload(cmd, opts, "micro")
		},
	}
	micro.Flags().IntVar(&opts.items, "items", 0, "number of items")
	micro.Flags().IntVar(&opts.reads, "reads", 0, "items read per procedure")
	micro.Flags().IntVar(&opts.writes, "writes", 0, "items written per procedure")

	root.AddCommand(tpcc, micro)
	return root
}

// loadConfig reads the configuration file, if any, and applies the flags
// the user set on top of it.
func loadConfig(cmd *cobra.Command, opts *options, workload string) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("mode") {
		cfg.ConcurrencyMode = opts.mode
	}
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if changed("lock-wait-budget") {
		cfg.LockWaitBudget = config.Duration{Duration: opts.waitBudget}
	}
	if changed("workers") {
		cfg.Bench.Workers = opts.workers
	}
	if changed("txs") {
		cfg.Bench.TxsPerWorker = opts.txs
	}
	if changed("seed") {
		cfg.Bench.Seed = opts.seed
	}

	switch workload {
	case "tpcc":
		if changed("warehouses") {
			cfg.TPCC.NumWarehouses = opts.warehouses
		}
		if changed("items") {
			cfg.TPCC.NumItems = opts.items
		}
	case "micro":
		if changed("items") {
			cfg.Micro.NumItems = opts.items
		}
		if changed("reads") {
			cfg.Micro.ReadCount = opts.reads
		}
		if changed("writes") {
			cfg.Micro.WriteCount = opts.writes
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWorkload(cmd *cobra.Command, opts *options, workload string) error {
	cfg, err := loadConfig(cmd, opts, workload)
	if err != nil {
		return err
	}

	logger, err := logutil.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	d, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, d, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	w, err := bench.Setup(d, workload)
	if err != nil {
		return err
	}

	report, err := bench.Run(ctx, w, cfg.Bench, logger)
	if report != nil {
		fmt.Fprint(os.Stdout, report)
	}
	if errors.Is(err, context.Canceled) {
		fmt.Println("interrupted")
		return nil
	}
	return err
}

func serveMetrics(addr string, d *db.DB, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.Metrics().Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
