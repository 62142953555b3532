package domain

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestProperty_PriceStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Price(rapid.Int64Range(-99_999_999_99, 99_999_999_99).Draw(t, "price"))

		got, err := ParsePrice(p.String())
		if err != nil {
			t.Fatalf("ParsePrice(%q) returned error for value formatted from %d: %v", p.String(), int64(p), err)
		}
		if got != p {
			t.Fatalf("round-trip failed: %d -> %q -> %d", int64(p), p.String(), int64(got))
		}
	})
}

func TestProperty_ParsePriceRejectsExcessPrecision(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		whole := rapid.Int64Range(0, 999_999).Draw(t, "whole")
		d1 := rapid.IntRange(0, 9).Draw(t, "d1")
		d2 := rapid.IntRange(0, 9).Draw(t, "d2")
		d3 := rapid.IntRange(1, 9).Draw(t, "d3") // must be non-zero

		s := fmt.Sprintf("%d.%d%d%d", whole, d1, d2, d3)
		if _, err := ParsePrice(s); err == nil {
			t.Fatalf("ParsePrice(%q) should reject value with >2 decimal places", s)
		}
	})
}
