package loadgen

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/efreitasn/matchbook/internal/domain"
)

func TestGenerate_Deterministic(t *testing.T) {
	participants := []string{"aa", "bb", "cc"}

	a, err := New(DefaultParams(), 42).Generate(participants, 200)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := New(DefaultParams(), 42).Generate(participants, 200)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("request %d differs for the same seed: %+v vs %+v", i, a[i], b[i])
		}
	}

	c, _ := New(DefaultParams(), 43).Generate(participants, 200)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical flow")
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := New(DefaultParams(), 1)
	if _, err := g.Generate(nil, 10); err == nil {
		t.Fatal("expected error with no participants")
	}
	if _, err := g.Generate([]string{"aa"}, -1); err == nil {
		t.Fatal("expected error for negative count")
	}

	bad := DefaultParams()
	bad.MeanQty = 0
	if _, err := New(bad, 1).Generate([]string{"aa"}, 1); err == nil {
		t.Fatal("expected error for zero mean qty")
	}
}

func TestGenerate_SidesCentreOnMeans(t *testing.T) {
	reqs, err := New(DefaultParams(), 7).Generate([]string{"aa"}, 5000)
	if err != nil {
		t.Fatal(err)
	}
	var bidSum, offerSum int64
	var bids, offers int
	for _, r := range reqs {
		if r.Side == domain.SideBuy {
			bidSum += int64(r.Price)
			bids++
		} else {
			offerSum += int64(r.Price)
			offers++
		}
	}
	if bids == 0 || offers == 0 {
		t.Fatalf("expected both sides, got %d bids and %d offers", bids, offers)
	}
	if avg := bidSum / int64(bids); avg < 1100 || avg > 1200 {
		t.Fatalf("average bid %d far from 11.50", avg)
	}
	if avg := offerSum / int64(offers); avg < 1200 || avg > 1300 {
		t.Fatalf("average offer %d far from 12.50", avg)
	}
}

func TestProperty_GeneratedRequestsAreValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Params{
			MeanBid:    rapid.Float64Range(0.01, 100).Draw(t, "mean_bid"),
			MeanOffer:  rapid.Float64Range(0.01, 100).Draw(t, "mean_offer"),
			PriceStdev: rapid.Float64Range(0, 50).Draw(t, "price_stdev"),
			MeanQty:    rapid.Float64Range(0.5, 200).Draw(t, "mean_qty"),
			QtyStdev:   rapid.Float64Range(0, 100).Draw(t, "qty_stdev"),
		}
		participants := []string{"aa", "bb"}
		reqs, err := New(p, rapid.Uint64().Draw(t, "seed")).Generate(participants, 50)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for i, r := range reqs {
			if r.Price < 1 {
				t.Fatalf("request %d: price %d below one cent", i, r.Price)
			}
			if r.Quantity < 1 {
				t.Fatalf("request %d: qty %d below one", i, r.Quantity)
			}
			if r.Participant != "aa" && r.Participant != "bb" {
				t.Fatalf("request %d: unknown participant %q", i, r.Participant)
			}
			if !r.Side.Valid() {
				t.Fatalf("request %d: invalid side %v", i, r.Side)
			}
		}
	})
}

// recordingClient counts submissions; with fail set it rejects them all.
type recordingClient struct {
	code   string
	placed int
	fail   error
}

func (c *recordingClient) Code() string { return c.code }

func (c *recordingClient) Submit(domain.Side, domain.Price, int64) (string, error) {
	if c.fail != nil {
		return "", c.fail
	}
	c.placed++
	return c.code + "0000", nil
}

func TestPlace(t *testing.T) {
	aa := &recordingClient{code: "aa"}
	bb := &recordingClient{code: "bb", fail: &domain.ValidationError{Field: "price", Message: "bad"}}
	reqs := []Request{
		{Participant: "aa", Side: domain.SideBuy, Price: 1000, Quantity: 1},
		{Participant: "bb", Side: domain.SideSell, Price: 1000, Quantity: 1},
		{Participant: "aa", Side: domain.SideSell, Price: 1100, Quantity: 1},
	}

	stats, err := Place(context.Background(), []Client{aa, bb}, reqs)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if stats.Placed != 2 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if aa.placed != 2 {
		t.Fatalf("aa placed %d, want 2", aa.placed)
	}
}

func TestPlace_StopsOnFatalError(t *testing.T) {
	c := &recordingClient{code: "aa", fail: domain.ErrEngineHalted}
	reqs := []Request{{Participant: "aa", Side: domain.SideBuy, Price: 1000, Quantity: 1}}

	_, err := Place(context.Background(), []Client{c}, reqs)
	if !errors.Is(err, domain.ErrEngineHalted) {
		t.Fatalf("expected ErrEngineHalted, got %v", err)
	}
}

func TestPlace_UnknownParticipant(t *testing.T) {
	reqs := []Request{{Participant: "zz", Side: domain.SideBuy, Price: 1000, Quantity: 1}}
	if _, err := Place(context.Background(), nil, reqs); err == nil {
		t.Fatal("expected error for unknown participant")
	}
}

func TestPlace_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &recordingClient{code: "aa"}
	reqs := []Request{{Participant: "aa", Side: domain.SideBuy, Price: 1000, Quantity: 1}}
	if _, err := Place(ctx, []Client{c}, reqs); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.placed != 0 {
		t.Fatal("no order should be placed after cancellation")
	}
}
