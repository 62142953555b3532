package engine

import (
	"fmt"
	"time"

	"github.com/efreitasn/matchbook/internal/domain"
	"github.com/google/btree"
)

// queueEntry is a slot in one side's priority queue. It carries only the
// ordering key and the order id; quantities live in the liveness index.
type queueEntry struct {
	Price   domain.Price
	Seq     uint64
	OrderID string
}

// bidLess orders the bid queue by price descending, then sequence
// ascending, so Min() is the best bid.
func bidLess(a, b queueEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Seq < b.Seq
}

// offerLess orders the offer queue by price ascending, then sequence
// ascending, so Min() is the best offer.
func offerLess(a, b queueEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}

// RestingOrder is the liveness-index record of an order on the book.
type RestingOrder struct {
	OrderID   string
	Side      domain.Side
	Price     domain.Price
	Quantity  int64 // remaining
	Seq       uint64
	Timestamp time.Time
}

// OrderBook keeps a priority queue per side plus a side-independent index
// of live orders. Removal only touches the index: a queue entry whose
// (order id, seq) is no longer indexed is a tombstone, discarded when it
// surfaces at the top of its queue.
type OrderBook struct {
	bids   *btree.BTreeG[queueEntry]
	offers *btree.BTreeG[queueEntry]
	index  map[string]*RestingOrder // order_id → live order
}

// NewOrderBook creates an empty book.
func NewOrderBook() *OrderBook {
	const degree = 32
	return &OrderBook{
		bids:   btree.NewG[queueEntry](degree, bidLess),
		offers: btree.NewG[queueEntry](degree, offerLess),
		index:  make(map[string]*RestingOrder),
	}
}

func (ob *OrderBook) queue(side domain.Side) *btree.BTreeG[queueEntry] {
	if side == domain.SideBuy {
		return ob.bids
	}
	return ob.offers
}

// live reports whether e still refers to an indexed order. Matching on
// seq as well as id keeps a stale entry dead even if its id is reused.
func (ob *OrderBook) live(e queueEntry) (*RestingOrder, bool) {
	o, ok := ob.index[e.OrderID]
	if !ok || o.Seq != e.Seq {
		return nil, false
	}
	return o, true
}

// InsertResting adds an order to its side's queue and to the index.
// Callers must have validated the order.
func (ob *OrderBook) InsertResting(side domain.Side, price domain.Price, qty int64, ts time.Time, orderID string, seq uint64) {
	ob.queue(side).ReplaceOrInsert(queueEntry{Price: price, Seq: seq, OrderID: orderID})
	ob.index[orderID] = &RestingOrder{
		OrderID:   orderID,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Seq:       seq,
		Timestamp: ts,
	}
}

// Best returns the highest-priority live order on side, popping any
// tombstones found above it. It returns false once the queue is empty.
func (ob *OrderBook) Best(side domain.Side) (RestingOrder, bool) {
	q := ob.queue(side)
	for {
		top, ok := q.Min()
		if !ok {
			return RestingOrder{}, false
		}
		if o, ok := ob.live(top); ok {
			return *o, true
		}
		q.DeleteMin()
	}
}

// ReduceOrRemove decrements an order's remaining quantity by traded. An
// order reaching zero leaves the index; its queue slot becomes a tombstone.
// A missing order or an over-fill means the index is corrupt.
func (ob *OrderBook) ReduceOrRemove(orderID string, traded int64) (int64, error) {
	o, ok := ob.index[orderID]
	if !ok {
		return 0, fmt.Errorf("%w: reduce of unindexed order %s", domain.ErrCorruptBook, orderID)
	}
	if traded <= 0 || traded > o.Quantity {
		return 0, fmt.Errorf("%w: fill of %d against %d remaining on %s",
			domain.ErrCorruptBook, traded, o.Quantity, orderID)
	}
	o.Quantity -= traded
	if o.Quantity == 0 {
		delete(ob.index, orderID)
	}
	return o.Quantity, nil
}

// Cancel removes a resting order from the index. The queue entry is left
// as a tombstone.
func (ob *OrderBook) Cancel(orderID string) (RestingOrder, error) {
	o, ok := ob.index[orderID]
	if !ok {
		return RestingOrder{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	delete(ob.index, orderID)
	return *o, nil
}

// Resting looks up a live order by id.
func (ob *OrderBook) Resting(orderID string) (RestingOrder, bool) {
	o, ok := ob.index[orderID]
	if !ok {
		return RestingOrder{}, false
	}
	return *o, true
}

// Len returns the number of live orders on both sides.
func (ob *OrderBook) Len() int {
	return len(ob.index)
}

// QueueLen returns the number of queue slots on side, tombstones included.
func (ob *OrderBook) QueueLen(side domain.Side) int {
	return ob.queue(side).Len()
}

// Ranked returns the live orders on side from best to worst without
// modifying the queue.
func (ob *OrderBook) Ranked(side domain.Side) []RestingOrder {
	var out []RestingOrder
	ob.queue(side).Ascend(func(e queueEntry) bool {
		if o, ok := ob.live(e); ok {
			out = append(out, *o)
		}
		return true
	})
	return out
}
