package tpcc

import (
	"math/rand"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/sproc"
)

// Workload issues NewOrder procedures against a loaded TPC-C database.
type Workload struct {
	env      *sproc.Env
	cfg      config.TPCC
	orderIDs *OrderIDCounter
}

func NewWorkload(env *sproc.Env, cfg config.TPCC) *Workload {
	return &Workload{
		env:      env,
		cfg:      cfg,
		orderIDs: NewOrderIDCounter(cfg.NumWarehouses, cfg.DistrictsPerWarehouse, cfg.InitialOrderID),
	}
}

func (w *Workload) Name() string {
	return "tpcc"
}

// OrderIDs returns the order id counter of the workload.
func (w *Workload) OrderIDs() *OrderIDCounter {
	return w.orderIDs
}

// Next returns a NewOrder with random parameters.
// Roughly one order line in a hundred is supplied by another warehouse.
func (w *Workload) Next(rng *rand.Rand) (*sproc.StoredProcedure, []any) {
	wid := randBetween(rng, 1, w.cfg.NumWarehouses)
	did := randBetween(rng, 1, w.cfg.DistrictsPerWarehouse)
	cid := randBetween(rng, 1, w.cfg.CustomersPerDistrict)

	olCount := randBetween(rng, 5, w.cfg.MaxOLCount)
	lines := make([]OrderLine, olCount)
	for i := range lines {
		supply := wid
		if w.cfg.NumWarehouses > 1 && rng.Intn(100) == 0 {
			for supply == wid {
				supply = randBetween(rng, 1, w.cfg.NumWarehouses)
			}
		}
		lines[i] = OrderLine{
			ItemID:    randBetween(rng, 1, w.cfg.NumItems),
			SupplyWID: supply,
			Quantity:  randBetween(rng, 1, 10),
		}
	}

	return w.NewOrder(), NewOrderArgs(wid, did, cid, lines...)
}
