package micro

import (
	"math/rand"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/sproc"
)

// Workload issues MicroTxn procedures over a loaded item table.
type Workload struct {
	env     *sproc.Env
	cfg     config.Micro
	mapping *ItemMapping
}

// NewWorkload returns a workload resolving items through mapping,
// which must be built before the workload is used.
func NewWorkload(env *sproc.Env, cfg config.Micro, mapping *ItemMapping) *Workload {
	return &Workload{
		env:     env,
		cfg:     cfg,
		mapping: mapping,
	}
}

func (w *Workload) Name() string {
	return "micro"
}

// Next returns a MicroTxn over random distinct items.
func (w *Workload) Next(rng *rand.Rand) (*sproc.StoredProcedure, []any) {
	read := sampleIDs(rng, w.cfg.NumItems, w.cfg.ReadCount)
	write := sampleIDs(rng, w.cfg.NumItems, w.cfg.WriteCount)

	prices := make([]float64, len(write))
	for i := range prices {
		prices[i] = randPrice(rng)
	}

	return w.MicroTxn(), MicroTxnArgs(read, write, prices)
}

// sampleIDs returns k distinct ids in [0, n).
func sampleIDs(rng *rand.Rand, n, k int) []int {
	seen := make(map[int]struct{}, k)
	ids := make([]int, 0, k)
	for len(ids) < k {
		id := rng.Intn(n)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
