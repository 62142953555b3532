package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Side indicates whether an order is a bid (buy) or an offer (sell).
type Side uint8

const (
	SideBuy Side = iota + 1
	SideSell
)

// Ledger tokens for each side.
const (
	sideTokenBuy  = "b"
	sideTokenSell = "o"
)

var orderIDRegex = regexp.MustCompile(`^[a-z]{2}[0-9]{4}$`)

// ParseSide converts a direction token into a Side. Tokens are
// case-insensitive: "b" for a bid, "o" for an offer.
func ParseSide(token string) (Side, error) {
	switch token {
	case "b", "B":
		return SideBuy, nil
	case "o", "O":
		return SideSell, nil
	}
	return 0, &ValidationError{
		Field:   "side",
		Message: fmt.Sprintf("invalid order type %q, must be 'b' or 'o'", token),
	}
}

// Valid reports whether s is one of the two defined sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side an arrival on s matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Token returns the single-character ledger token for the side.
func (s Side) Token() string {
	if s == SideBuy {
		return sideTokenBuy
	}
	return sideTokenSell
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// ValidateOrderID checks the participant identifier format: two lowercase
// letters followed by four digits, e.g. "fm0003".
func ValidateOrderID(id string) error {
	if !orderIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrMalformedOrderID, id)
	}
	return nil
}

// ParticipantCode returns the two-letter participant prefix of an order id.
// The id must already be valid.
func ParticipantCode(orderID string) string {
	return orderID[:2]
}

// Arrival is a validated order handed to the engine for matching.
type Arrival struct {
	OrderID  string
	Side     Side
	Price    Price
	Quantity int64
}

// Validate rejects arrivals that must never reach the book. Field errors
// are returned as *ValidationError; a bad identifier wraps ErrMalformedOrderID.
func (a Arrival) Validate() error {
	if !a.Side.Valid() {
		return &ValidationError{Field: "side", Message: "side must be buy or sell"}
	}
	if a.Price <= 0 {
		return &ValidationError{Field: "price", Message: "price must be greater than zero"}
	}
	if a.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "quantity must be a positive integer"}
	}
	return ValidateOrderID(a.OrderID)
}

// OrderRecord is one accepted arrival as written to the order stream.
type OrderRecord struct {
	Seq         uint64
	Side        Side
	Participant string
	OrderID     string
	Timestamp   time.Time
	Price       Price
	Quantity    int64
}

// Arrival returns the arrival the record was logged for.
func (r OrderRecord) Arrival() Arrival {
	return Arrival{
		OrderID:  r.OrderID,
		Side:     r.Side,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}
