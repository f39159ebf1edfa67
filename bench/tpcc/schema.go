package tpcc

import (
	"fmt"

	"github.com/luigitni/detdb/engine"
)

const (
	TableWarehouse = "warehouse"
	TableDistrict  = "district"
	TableCustomer  = "customer"
	TableItem      = "item"
	TableStock     = "stock"
	TableOrders    = "orders"
	TableNewOrder  = "new_order"
	TableOrderLine = "order_line"
)

// distInfoField returns the stock field holding the district info of did.
func distInfoField(did int) string {
	return fmt.Sprintf("s_dist_%02d", did)
}

type tableDef struct {
	name      string
	schema    engine.Schema
	keyFields []string
}

func tableDefs(districts int) []tableDef {
	warehouse := engine.NewSchema()
	warehouse.AddIntField("w_id")
	warehouse.AddVarcharField("w_name")
	warehouse.AddDoubleField("w_tax")
	warehouse.AddDoubleField("w_ytd")

	district := engine.NewSchema()
	district.AddIntField("d_id")
	district.AddIntField("d_w_id")
	district.AddVarcharField("d_name")
	district.AddDoubleField("d_tax")
	district.AddDoubleField("d_ytd")
	district.AddIntField("d_next_o_id")

	customer := engine.NewSchema()
	customer.AddIntField("c_id")
	customer.AddIntField("c_d_id")
	customer.AddIntField("c_w_id")
	customer.AddVarcharField("c_last")
	customer.AddVarcharField("c_credit")
	customer.AddDoubleField("c_discount")
	customer.AddDoubleField("c_balance")

	item := engine.NewSchema()
	item.AddIntField("i_id")
	item.AddIntField("i_im_id")
	item.AddVarcharField("i_name")
	item.AddDoubleField("i_price")
	item.AddVarcharField("i_data")

	stock := engine.NewSchema()
	stock.AddIntField("s_i_id")
	stock.AddIntField("s_w_id")
	stock.AddIntField("s_quantity")
	for d := 1; d <= districts; d++ {
		stock.AddVarcharField(distInfoField(d))
	}
	stock.AddIntField("s_ytd")
	stock.AddIntField("s_order_cnt")
	stock.AddIntField("s_remote_cnt")
	stock.AddVarcharField("s_data")

	orders := engine.NewSchema()
	orders.AddIntField("o_id")
	orders.AddIntField("o_d_id")
	orders.AddIntField("o_w_id")
	orders.AddIntField("o_c_id")
	orders.AddLongField("o_entry_d")
	orders.AddIntField("o_carrier_id")
	orders.AddIntField("o_ol_cnt")
	orders.AddIntField("o_all_local")

	newOrder := engine.NewSchema()
	newOrder.AddIntField("no_o_id")
	newOrder.AddIntField("no_d_id")
	newOrder.AddIntField("no_w_id")

	orderLine := engine.NewSchema()
	orderLine.AddIntField("ol_o_id")
	orderLine.AddIntField("ol_d_id")
	orderLine.AddIntField("ol_w_id")
	orderLine.AddIntField("ol_number")
	orderLine.AddIntField("ol_i_id")
	orderLine.AddIntField("ol_supply_w_id")
	orderLine.AddLongField("ol_delivery_d")
	orderLine.AddIntField("ol_quantity")
	orderLine.AddDoubleField("ol_amount")
	orderLine.AddVarcharField("ol_dist_info")

	return []tableDef{
		{TableWarehouse, warehouse, []string{"w_id"}},
		{TableDistrict, district, []string{"d_w_id", "d_id"}},
		{TableCustomer, customer, []string{"c_w_id", "c_d_id", "c_id"}},
		{TableItem, item, []string{"i_id"}},
		{TableStock, stock, []string{"s_i_id", "s_w_id"}},
		{TableOrders, orders, []string{"o_w_id", "o_d_id", "o_id"}},
		{TableNewOrder, newOrder, []string{"no_w_id", "no_d_id", "no_o_id"}},
		{TableOrderLine, orderLine, []string{"ol_w_id", "ol_d_id", "ol_o_id", "ol_number"}},
	}
}

// CreateSchema creates the TPC-C tables.
func CreateSchema(c *engine.Catalog, districts int) error {
	for _, def := range tableDefs(districts) {
		if _, err := c.CreateTable(def.name, def.schema, def.keyFields...); err != nil {
			return err
		}
	}
	return nil
}
