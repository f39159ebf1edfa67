package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

const (
	ModeConservative = "conservative"
	ModeSerializable = "serializable"
)

// Duration is a time.Duration that decodes from strings such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	LogLevel        string `toml:"log-level"`
	ConcurrencyMode string `toml:"concurrency-mode"`
	// Maximum time a transaction waits for a single lock before aborting.
	LockWaitBudget Duration `toml:"lock-wait-budget"`
	// Address the Prometheus handler listens on. Empty disables it.
	MetricsAddr string `toml:"metrics-addr"`

	TPCC  TPCC  `toml:"tpcc"`
	Micro Micro `toml:"micro"`
	Bench Bench `toml:"bench"`
}

type TPCC struct {
	NumWarehouses         int `toml:"num-warehouses"`
	DistrictsPerWarehouse int `toml:"districts-per-warehouse"`
	MaxOLCount            int `toml:"max-ol-count"`
	InitialOrderID        int `toml:"initial-order-id"`
	NumItems              int `toml:"num-items"`
	CustomersPerDistrict  int `toml:"customers-per-district"`
}

type Micro struct {
	NumItems   int `toml:"num-items"`
	ReadCount  int `toml:"read-count"`
	WriteCount int `toml:"write-count"`
}

type Bench struct {
	Workers      int   `toml:"workers"`
	TxsPerWorker int   `toml:"txs-per-worker"`
	Seed         int64 `toml:"seed"`
}

func (c *Config) Validate() error {
	if c.ConcurrencyMode != ModeConservative && c.ConcurrencyMode != ModeSerializable {
		return errors.Newf("unknown concurrency mode %q", c.ConcurrencyMode)
	}

	if c.LockWaitBudget.Duration <= 0 {
		return errors.New("lock wait budget must be greater than 0")
	}

	t := c.TPCC
	if t.NumWarehouses <= 0 || t.DistrictsPerWarehouse <= 0 {
		return errors.New("tpcc needs at least one warehouse and one district")
	}
	if t.MaxOLCount < 5 {
		return errors.Newf("tpcc max-ol-count must be at least 5, got %d", t.MaxOLCount)
	}
	if t.InitialOrderID <= 0 {
		return errors.New("tpcc initial order id must be greater than 0")
	}
	if t.NumItems <= 0 || t.CustomersPerDistrict <= 0 {
		return errors.New("tpcc needs at least one item and one customer per district")
	}

	m := c.Micro
	if m.NumItems <= 0 {
		return errors.New("micro needs at least one item")
	}
	if m.ReadCount < 0 || m.WriteCount < 0 || m.ReadCount > m.NumItems || m.WriteCount > m.NumItems {
		return errors.Newf("micro read/write counts must be within [0, %d]", m.NumItems)
	}

	if c.Bench.Workers <= 0 || c.Bench.TxsPerWorker <= 0 {
		return errors.New("bench needs at least one worker and one transaction per worker")
	}

	return nil
}

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:        getLogLevel(),
		ConcurrencyMode: ModeConservative,
		LockWaitBudget:  Duration{10 * time.Second},
		TPCC: TPCC{
			NumWarehouses:         1,
			DistrictsPerWarehouse: 10,
			MaxOLCount:            15,
			InitialOrderID:        3001,
			NumItems:              100000,
			CustomersPerDistrict:  3000,
		},
		Micro: Micro{
			NumItems:   100000,
			ReadCount:  10,
			WriteCount: 2,
		},
		Bench: Bench{
			Workers:      8,
			TxsPerWorker: 1000,
			Seed:         1,
		},
	}
}

// NewTestConfig returns a configuration sized for unit tests.
func NewTestConfig() *Config {
	return &Config{
		LogLevel:        getLogLevel(),
		ConcurrencyMode: ModeConservative,
		LockWaitBudget:  Duration{5 * time.Second},
		TPCC: TPCC{
			NumWarehouses:         1,
			DistrictsPerWarehouse: 10,
			MaxOLCount:            15,
			InitialOrderID:        3001,
			NumItems:              100,
			CustomersPerDistrict:  30,
		},
		Micro: Micro{
			NumItems:   100,
			ReadCount:  10,
			WriteCount: 2,
		},
		Bench: Bench{
			Workers:      4,
			TxsPerWorker: 25,
			Seed:         1,
		},
	}
}

// Load reads the TOML file at path over the default configuration and validates the result.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	c := NewDefaultConfig()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Newf("unknown config keys in %s: %v", path, undecoded)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}

	return c, nil
}
