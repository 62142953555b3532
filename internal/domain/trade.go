package domain

import (
	"fmt"
	"time"
)

// Execution is a trade between a bid and an offer. The price is always
// the resting order's price.
type Execution struct {
	ExecID       string
	Seq          uint64
	Timestamp    time.Time
	BuyerCode    string
	BidOrderID   string
	SellerCode   string
	OfferOrderID string
	Price        Price
	Quantity     int64
}

// ExecutionID derives the execution identifier from its sequence number.
func ExecutionID(seq uint64) string {
	return fmt.Sprintf("EX%04d", seq)
}

// Involves reports whether orderID is either side of the execution.
func (e Execution) Involves(orderID string) bool {
	return e.BidOrderID == orderID || e.OfferOrderID == orderID
}
