package micro

import (
	"fmt"
	"math/rand"

	"github.com/luigitni/detdb/config"
	"github.com/luigitni/detdb/db"
	"github.com/luigitni/detdb/engine"
	"github.com/luigitni/detdb/sql"
	"github.com/luigitni/detdb/types"
	"go.uber.org/zap"
)

const TableItem = "item"

func itemSchema() engine.Schema {
	s := engine.NewSchema()
	s.AddIntField("i_id")
	s.AddIntField("i_im_id")
	s.AddVarcharField("i_name")
	s.AddDoubleField("i_price")
	s.AddVarcharField("i_data")
	return s
}

// Load creates the item table in d with items 0 to cfg.NumItems-1.
func Load(d *db.DB, cfg config.Micro, rng *rand.Rand) error {
	if _, err := d.Catalog().CreateTable(TableItem, itemSchema(), "i_id"); err != nil {
		return err
	}

	l := d.NewLoader(0)
	for i := 0; i < cfg.NumItems; i++ {
		if err := l.Insert(sql.InsertInto(TableItem, "i_id", "i_im_id", "i_name", "i_price", "i_data").Row(
			types.NewInt(i),
			types.NewInt(rng.Intn(10000)+1),
			types.NewVarchar(fmt.Sprintf("item-%d", i)),
			types.NewDouble(randPrice(rng)),
			types.NewVarchar(fmt.Sprintf("data-%d", rng.Int63())),
		)); err != nil {
			return err
		}
	}

	if err := l.Flush(); err != nil {
		return err
	}

	d.Logger().Named("micro").Info("loaded micro tables", zap.Int("items", l.Loaded()))
	return nil
}

// randPrice returns a price in [1, 100] with two decimals.
func randPrice(rng *rand.Rand) float64 {
	return float64(100+rng.Intn(9901)) / 100
}
