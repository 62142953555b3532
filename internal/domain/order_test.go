package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		token   string
		want    Side
		wantErr bool
	}{
		{"b", SideBuy, false},
		{"B", SideBuy, false},
		{"o", SideSell, false},
		{"O", SideSell, false},
		{"c", 0, true},
		{"s", 0, true},
		{"", 0, true},
		{"bo", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.token)
		if tt.wantErr {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("ParseSide(%q) error = %v, want *ValidationError", tt.token, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSide(%q) unexpected error: %v", tt.token, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSide(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestSide_TokenRoundTrip(t *testing.T) {
	for _, s := range []Side{SideBuy, SideSell} {
		got, err := ParseSide(s.Token())
		if err != nil || got != s {
			t.Errorf("ParseSide(%q) = %v, %v; want %v", s.Token(), got, err, s)
		}
	}
}

func TestSide_Opposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Error("buy.Opposite() should be sell")
	}
	if SideSell.Opposite() != SideBuy {
		t.Error("sell.Opposite() should be buy")
	}
}

func TestValidateOrderID(t *testing.T) {
	valid := []string{"aa0001", "fm0003", "zz9999"}
	for _, id := range valid {
		if err := ValidateOrderID(id); err != nil {
			t.Errorf("ValidateOrderID(%q) unexpected error: %v", id, err)
		}
	}

	invalid := []string{"", "a0001", "AA0001", "aa001", "aa00001", "aa000a", "a10001", " aa0001", "aa0001\n", "aa٠٠٠١"}
	for _, id := range invalid {
		err := ValidateOrderID(id)
		if !errors.Is(err, ErrMalformedOrderID) {
			t.Errorf("ValidateOrderID(%q) = %v, want ErrMalformedOrderID", id, err)
		}
	}
}

func TestArrival_Validate(t *testing.T) {
	ok := Arrival{OrderID: "aa0001", Side: SideBuy, Price: 1005, Quantity: 50}

	tests := []struct {
		name      string
		mutate    func(a *Arrival)
		wantField string
		wantIs    error
	}{
		{"valid", func(a *Arrival) {}, "", nil},
		{"zero side", func(a *Arrival) { a.Side = 0 }, "side", nil},
		{"zero price", func(a *Arrival) { a.Price = 0 }, "price", nil},
		{"negative price", func(a *Arrival) { a.Price = -1 }, "price", nil},
		{"zero quantity", func(a *Arrival) { a.Quantity = 0 }, "quantity", nil},
		{"negative quantity", func(a *Arrival) { a.Quantity = -5 }, "quantity", nil},
		{"bad id", func(a *Arrival) { a.OrderID = "AA01" }, "", ErrMalformedOrderID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ok
			tt.mutate(&a)
			err := a.Validate()

			switch {
			case tt.wantField != "":
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Validate() = %v, want *ValidationError", err)
				}
				if ve.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
				}
			case tt.wantIs != nil:
				if !errors.Is(err, tt.wantIs) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantIs)
				}
			default:
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}

func TestOrderRecord_Arrival(t *testing.T) {
	rec := OrderRecord{
		Seq:         7,
		Side:        SideSell,
		Participant: "bb",
		OrderID:     "bb0001",
		Timestamp:   time.Unix(1700000000, 0),
		Price:       990,
		Quantity:    10,
	}
	got := rec.Arrival()
	want := Arrival{OrderID: "bb0001", Side: SideSell, Price: 990, Quantity: 10}
	if got != want {
		t.Errorf("Arrival() = %+v, want %+v", got, want)
	}
}

func TestExecutionID(t *testing.T) {
	tests := []struct {
		seq  uint64
		want string
	}{
		{1, "EX0001"},
		{42, "EX0042"},
		{12345, "EX12345"},
	}
	for _, tt := range tests {
		if got := ExecutionID(tt.seq); got != tt.want {
			t.Errorf("ExecutionID(%d) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func TestExecution_Involves(t *testing.T) {
	ex := Execution{BidOrderID: "aa0001", OfferOrderID: "bb0001"}
	if !ex.Involves("aa0001") || !ex.Involves("bb0001") {
		t.Error("Involves should be true for both bid and offer ids")
	}
	if ex.Involves("cc0001") {
		t.Error("Involves should be false for an unrelated id")
	}
}
