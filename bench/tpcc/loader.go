package tpcc

import (
	"math/rand"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/types"
	"go.uber.org/zap"
)

var lastNameSyllables = []string{
	"BAR", "OUGHT", "ABLE", "PRI", "PRES", "ESE", "ANTI", "CALLY", "ATION", "EING",
}

// lastName builds a customer last name from the digits of n.
func lastName(n int) string {
	return lastNameSyllables[(n/100)%10] + lastNameSyllables[(n/10)%10] + lastNameSyllables[n%10]
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randString(rng *rand.Rand, min, max int) string {
	b := make([]byte, min+rng.Intn(max-min+1))
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return string(b)
}

func randBetween(rng *rand.Rand, min, max int) int {
	return min + rng.Intn(max-min+1)
}

// randFixed returns a number in [min, max] with two decimals.
func randFixed(rng *rand.Rand, min, max float64) float64 {
	cents := randBetween(rng, int(min*100), int(max*100))
	return float64(cents) / 100
}

// Load creates the TPC-C tables in d and populates them.
// Every district starts with next order id cfg.InitialOrderID.
func Load(d *db.DB, cfg config.TPCC, rng *rand.Rand) error {
	if err := CreateSchema(d.Catalog(), cfg.DistrictsPerWarehouse); err != nil {
		return err
	}

	l := d.NewLoader(0)
	logger := d.Logger().Named("tpcc")

	for i := 1; i <= cfg.NumItems; i++ {
		if err := l.Insert(sql.InsertInto(TableItem, "i_id", "i_im_id", "i_name", "i_price", "i_data").Row(
			types.NewInt(i),
			types.NewInt(randBetween(rng, 1, 10000)),
			types.NewVarchar(randString(rng, 14, 24)),
			types.NewDouble(randFixed(rng, 1, 100)),
			types.NewVarchar(randString(rng, 26, 50)),
		)); err != nil {
			return err
		}
	}

	for w := 1; w <= cfg.NumWarehouses; w++ {
		if err := loadWarehouse(l, cfg, rng, w); err != nil {
			return err
		}
	}

	if err := l.Flush(); err != nil {
		return err
	}

	logger.Info("loaded tpcc tables",
		zap.Int("warehouses", cfg.NumWarehouses),
		zap.Int("items", cfg.NumItems),
		zap.Int("rows", l.Loaded()),
	)
	return nil
}

func loadWarehouse(l *db.Loader, cfg config.TPCC, rng *rand.Rand, w int) error {
	if err := l.Insert(sql.InsertInto(TableWarehouse, "w_id", "w_name", "w_tax", "w_ytd").Row(
		types.NewInt(w),
		types.NewVarchar(randString(rng, 6, 10)),
		types.NewDouble(randFixed(rng, 0, 0.2)),
		types.NewDouble(300000),
	)); err != nil {
		return err
	}

	stockFields := []string{"s_i_id", "s_w_id", "s_quantity"}
	for d := 1; d <= cfg.DistrictsPerWarehouse; d++ {
		stockFields = append(stockFields, distInfoField(d))
	}
	stockFields = append(stockFields, "s_ytd", "s_order_cnt", "s_remote_cnt", "s_data")

	for i := 1; i <= cfg.NumItems; i++ {
		vals := []types.Constant{types.NewInt(i), types.NewInt(w), types.NewInt(randBetween(rng, 10, 100))}
		for d := 1; d <= cfg.DistrictsPerWarehouse; d++ {
			vals = append(vals, types.NewVarchar(randString(rng, 24, 24)))
		}
		vals = append(vals, types.NewInt(0), types.NewInt(0), types.NewInt(0), types.NewVarchar(randString(rng, 26, 50)))

		if err := l.Insert(sql.InsertInto(TableStock, stockFields...).Row(vals...)); err != nil {
			return err
		}
	}

	for d := 1; d <= cfg.DistrictsPerWarehouse; d++ {
		if err := l.Insert(sql.InsertInto(TableDistrict, "d_id", "d_w_id", "d_name", "d_tax", "d_ytd", "d_next_o_id").Row(
			types.NewInt(d),
			types.NewInt(w),
			types.NewVarchar(randString(rng, 6, 10)),
			types.NewDouble(randFixed(rng, 0, 0.2)),
			types.NewDouble(30000),
			types.NewInt(cfg.InitialOrderID),
		)); err != nil {
			return err
		}

		for c := 1; c <= cfg.CustomersPerDistrict; c++ {
			credit := "GC"
			if rng.Intn(10) == 0 {
				credit = "BC"
			}

			if err := l.Insert(sql.InsertInto(TableCustomer, "c_id", "c_d_id", "c_w_id", "c_last", "c_credit", "c_discount", "c_balance").Row(
				types.NewInt(c),
				types.NewInt(d),
				types.NewInt(w),
				types.NewVarchar(lastName(c%1000)),
				types.NewVarchar(credit),
				types.NewDouble(randFixed(rng, 0, 0.5)),
				types.NewDouble(-10),
			)); err != nil {
				return err
			}
		}
	}

	return nil
}
