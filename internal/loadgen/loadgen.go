// Package loadgen produces synthetic order flow for load runs.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/matchbook/internal/domain"
)

// Params shapes the generated flow. Prices are drawn from normal
// distributions centred on MeanBid and MeanOffer; quantities from a
// normal distribution centred on MeanQty.
type Params struct {
	MeanBid    float64
	MeanOffer  float64
	PriceStdev float64
	MeanQty    float64
	QtyStdev   float64
}

// DefaultParams returns a flow with a one-unit spread between mean bid and
// mean offer, so roughly a third of orders cross.
func DefaultParams() Params {
	return Params{
		MeanBid:    11.50,
		MeanOffer:  12.50,
		PriceStdev: 1,
		MeanQty:    50,
		QtyStdev:   15,
	}
}

// Validate checks that every parameter can produce an order.
func (p Params) Validate() error {
	switch {
	case p.MeanBid <= 0:
		return fmt.Errorf("mean bid must be positive, got %v", p.MeanBid)
	case p.MeanOffer <= 0:
		return fmt.Errorf("mean offer must be positive, got %v", p.MeanOffer)
	case p.PriceStdev < 0:
		return fmt.Errorf("price stdev must not be negative, got %v", p.PriceStdev)
	case p.MeanQty <= 0:
		return fmt.Errorf("mean qty must be positive, got %v", p.MeanQty)
	case p.QtyStdev < 0:
		return fmt.Errorf("qty stdev must not be negative, got %v", p.QtyStdev)
	}
	return nil
}

// Request is one generated order.
type Request struct {
	Participant string
	Side        domain.Side
	Price       domain.Price
	Quantity    int64
}

// Generator draws requests from a seeded PCG source; two generators with
// the same params and seed produce the same flow.
type Generator struct {
	params Params
	rng    *rand.Rand
}

// New creates a generator.
func New(p Params, seed uint64) *Generator {
	return &Generator{
		params: p,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Generate draws n requests spread uniformly over participants.
func (g *Generator) Generate(participants []string, n int) ([]Request, error) {
	if len(participants) == 0 {
		return nil, errors.New("at least one participant is required")
	}
	if n < 0 {
		return nil, fmt.Errorf("order count must not be negative, got %d", n)
	}
	if err := g.params.Validate(); err != nil {
		return nil, err
	}

	out := make([]Request, n)
	for i := range out {
		out[i] = g.next(participants)
	}
	return out, nil
}

func (g *Generator) next(participants []string) Request {
	r := Request{Participant: participants[g.rng.IntN(len(participants))]}

	mean := g.params.MeanOffer
	r.Side = domain.SideSell
	if g.rng.IntN(2) == 0 {
		mean = g.params.MeanBid
		r.Side = domain.SideBuy
	}

	r.Price = g.price(mean)
	r.Quantity = max(int64(g.rng.NormFloat64()*g.params.QtyStdev+g.params.MeanQty), 1)
	return r
}

// price draws a normal price rounded to a cent and floored at one cent.
func (g *Generator) price(mean float64) domain.Price {
	d := decimal.NewFromFloat(g.rng.NormFloat64()*g.params.PriceStdev + mean).Round(domain.PricePlaces)
	p, err := domain.PriceFromDecimal(d)
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// Client is a trading client able to place orders.
type Client interface {
	Code() string
	Submit(side domain.Side, price domain.Price, qty int64) (string, error)
}

// PlaceStats counts the outcome of Place.
type PlaceStats struct {
	Placed   int
	Rejected int
}

// Place sends requests in order through the client owning each
// participant code. Rejected orders are counted and skipped; any other
// error stops the run. Context cancellation is checked between orders.
func Place(ctx context.Context, clients []Client, reqs []Request) (PlaceStats, error) {
	var stats PlaceStats

	byCode := make(map[string]Client, len(clients))
	for _, c := range clients {
		byCode[c.Code()] = c
	}

	for i, r := range reqs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		c, ok := byCode[r.Participant]
		if !ok {
			return stats, fmt.Errorf("request %d: no client for participant %q", i, r.Participant)
		}
		if _, err := c.Submit(r.Side, r.Price, r.Quantity); err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) || errors.Is(err, domain.ErrOrderIDSpaceExhausted) {
				stats.Rejected++
				continue
			}
			return stats, fmt.Errorf("request %d: %w", i, err)
		}
		stats.Placed++
	}
	return stats, nil
}
