package bench

import (
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/luigitni/detdb/bench/micro"
	"github.com/luigitni/detdb/bench/tpcc"
	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/sproc"
)

// Workload hands out procedures with random parameters.
type Workload interface {
	Name() string
	Next(rng *rand.Rand) (*sproc.StoredProcedure, []any)
}

var (
	_ Workload = (*tpcc.Workload)(nil)
	_ Workload = (*micro.Workload)(nil)
)

// Setup loads the tables of the named workload into d and returns the workload.
// Loading runs before any procedure, so it is also where the micro item
// mapping gets built.
func Setup(d *db.DB, name string) (Workload, error) {
	cfg := d.Config()
	rng := rand.New(rand.NewSource(cfg.Bench.Seed))

	switch name {
	case "tpcc":
		if err := tpcc.Load(d, cfg.TPCC, rng); err != nil {
			return nil, err
		}
		return tpcc.NewWorkload(d.Env(), cfg.TPCC), nil
	case "micro":
		if err := micro.Load(d, cfg.Micro, rng); err != nil {
			return nil, err
		}
		mapping, err := micro.BuildItemMapping(d)
		if err != nil {
			return nil, err
		}
		return micro.NewWorkload(d.Env(), cfg.Micro, mapping), nil
	}

	return nil, errors.Newf("unknown workload %q", name)
}
