package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a limit or execution price in hundredths of the quote unit.
// Ordering and matching compare Prices as plain integers.
type Price int64

// PricePlaces is the number of decimal places a price may carry.
const PricePlaces = 2

// ParsePrice parses a decimal string such as "10.05". It rejects values
// with more than two decimal places. Sign is not checked here; Arrival.Validate
// rejects non-positive prices.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "price", Message: fmt.Sprintf("price %q is not a decimal number", s)}
	}
	return PriceFromDecimal(d)
}

// PriceFromDecimal converts d to a Price, rejecting excess precision.
func PriceFromDecimal(d decimal.Decimal) (Price, error) {
	if !d.Equal(d.Round(PricePlaces)) {
		return 0, &ValidationError{
			Field:   "price",
			Message: fmt.Sprintf("price %s must have at most %d decimal places", d.String(), PricePlaces),
		}
	}
	return Price(d.Shift(PricePlaces).IntPart()), nil
}

// Decimal returns the price as an exact decimal.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -PricePlaces)
}

// String formats the price with exactly two decimal places.
func (p Price) String() string {
	return p.Decimal().StringFixed(PricePlaces)
}
