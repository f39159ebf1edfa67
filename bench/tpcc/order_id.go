package tpcc

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
)

// slack slots past the last district
const orderIDSlack = 100

// OrderIDCounter hands out the next order id of each district.
// Ids are drawn when a NewOrder prepares its keys, so the keys of the rows
// it inserts are known before the transaction is admitted.
type OrderIDCounter struct {
	warehouses int
	districts  int
	shards     []*atomic.Int32
}

func NewOrderIDCounter(warehouses, districts, start int) *OrderIDCounter {
	c := &OrderIDCounter{
		warehouses: warehouses,
		districts:  districts,
		shards:     make([]*atomic.Int32, warehouses*districts+orderIDSlack),
	}
	for i := range c.shards {
		c.shards[i] = atomic.NewInt32(int32(start))
	}
	return c
}

func (c *OrderIDCounter) index(wid, did int) (int, error) {
	if wid < 1 || wid > c.warehouses || did < 1 || did > c.districts {
		return 0, errors.Newf("no district %d in warehouse %d", did, wid)
	}
	return (wid-1)*c.districts + (did - 1), nil
}

// Next returns the next order id of district (wid, did).
func (c *OrderIDCounter) Next(wid, did int) (int, error) {
	i, err := c.index(wid, did)
	if err != nil {
		return 0, err
	}
	return int(c.shards[i].Inc() - 1), nil
}

// Peek returns the id the next call to Next would return.
func (c *OrderIDCounter) Peek(wid, did int) (int, error) {
	i, err := c.index(wid, did)
	if err != nil {
		return 0, err
	}
	return int(c.shards[i].Load()), nil
}
