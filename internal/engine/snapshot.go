package engine

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/efreitasn/matchbook/internal/domain"
)

// Level is one resting order as shown in a snapshot.
type Level struct {
	OrderID  string
	Quantity int64
	Price    domain.Price
}

// SnapshotRow pairs the bid and the offer at the same rank. Either side
// is nil once that side has run out of orders.
type SnapshotRow struct {
	Bid   *Level
	Offer *Level
}

// Snapshot is a point-in-time ranked view of the book.
type Snapshot struct {
	// NextSeq is the sequence the engine would assign next.
	NextSeq uint64
	Bids    []Level
	Offers  []Level
	Rows    []SnapshotRow
}

// Snapshot ranks both sides best-to-worst, skipping tombstones, and pairs
// them by rank. The queues are left untouched.
func (ob *OrderBook) Snapshot() Snapshot {
	bids := toLevels(ob.Ranked(domain.SideBuy))
	offers := toLevels(ob.Ranked(domain.SideSell))

	n := max(len(bids), len(offers))
	rows := make([]SnapshotRow, n)
	for i := range rows {
		if i < len(bids) {
			rows[i].Bid = &bids[i]
		}
		if i < len(offers) {
			rows[i].Offer = &offers[i]
		}
	}
	return Snapshot{Bids: bids, Offers: offers, Rows: rows}
}

func toLevels(orders []RestingOrder) []Level {
	levels := make([]Level, len(orders))
	for i, o := range orders {
		levels[i] = Level{OrderID: o.OrderID, Quantity: o.Quantity, Price: o.Price}
	}
	return levels
}

// WriteTable renders the snapshot as aligned columns:
// bid_id, bid_qty, bid_price, offer_price, offer_qty, offer_id.
func (s Snapshot) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "bid_id\tbid_qty\tbid_price\toffer_price\toffer_qty\toffer_id")
	for _, r := range s.Rows {
		var bidID, bidQty, bidPx, offPx, offQty, offID string
		if r.Bid != nil {
			bidID, bidQty, bidPx = r.Bid.OrderID, strconv.FormatInt(r.Bid.Quantity, 10), r.Bid.Price.String()
		}
		if r.Offer != nil {
			offPx, offQty, offID = r.Offer.Price.String(), strconv.FormatInt(r.Offer.Quantity, 10), r.Offer.OrderID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", bidID, bidQty, bidPx, offPx, offQty, offID)
	}
	return tw.Flush()
}
