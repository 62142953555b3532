package service

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/efreitasn/matchbook/internal/domain"
	"github.com/efreitasn/matchbook/internal/engine"
)

// MaxOrdersPerParticipant is the size of a participant's id space: the
// four-digit suffix of an order id.
const MaxOrdersPerParticipant = 10000

var participantCodeRegex = regexp.MustCompile(`^[a-z]{2}$`)

// OrderEntry is the engine surface a trading client needs.
type OrderEntry interface {
	Submit(a domain.Arrival) (*engine.Result, error)
	Cancel(orderID string) error
}

// TradingService is a participant's trading client. It owns the
// participant's order-id space and forwards orders to the engine.
type TradingService struct {
	code string
	eng  OrderEntry

	mu   sync.Mutex
	next int
}

// Option configures a TradingService.
type Option func(*TradingService)

// WithNextID makes the client start issuing ids at suffix n, for a
// participant whose earlier ids are already known to the engine.
func WithNextID(n int) Option {
	return func(s *TradingService) { s.next = n }
}

// NewTradingService creates a client for the participant identified by a
// two-lowercase-letter code.
func NewTradingService(code string, eng OrderEntry, opts ...Option) (*TradingService, error) {
	if !participantCodeRegex.MatchString(code) {
		return nil, &domain.ValidationError{
			Field:   "participant",
			Message: fmt.Sprintf("participant code %q must match ^[a-z]{2}$", code),
		}
	}
	s := &TradingService{code: code, eng: eng}
	for _, opt := range opts {
		opt(s)
	}
	if s.next < 0 || s.next > MaxOrdersPerParticipant {
		return nil, &domain.ValidationError{
			Field:   "next_id",
			Message: fmt.Sprintf("next id %d must be between 0 and %d", s.next, MaxOrdersPerParticipant),
		}
	}
	return s, nil
}

// Code returns the participant code.
func (s *TradingService) Code() string {
	return s.code
}

// Order parses raw order tokens and submits the order. The side token is
// b/B for a buy and o/O for an offer; cancellation is a separate call and
// c/C is rejected here.
func (s *TradingService) Order(token, price string, qty int64) (string, error) {
	if strings.EqualFold(token, "c") {
		return "", &domain.ValidationError{
			Field:   "side",
			Message: "cancel is not an order side; cancel by order id instead",
		}
	}
	side, err := domain.ParseSide(token)
	if err != nil {
		return "", err
	}
	p, err := domain.ParsePrice(price)
	if err != nil {
		return "", err
	}
	return s.Submit(side, p, qty)
}

// Submit places an order and returns its id. Inputs are validated before
// an id is assigned, so a rejected order does not use up an id.
func (s *TradingService) Submit(side domain.Side, price domain.Price, qty int64) (string, error) {
	a := domain.Arrival{OrderID: s.code + "0000", Side: side, Price: price, Quantity: qty}
	if err := a.Validate(); err != nil {
		return "", err
	}

	id, err := s.nextID()
	if err != nil {
		return "", err
	}
	a.OrderID = id

	if _, err := s.eng.Submit(a); err != nil {
		return "", fmt.Errorf("submit %s: %w", id, err)
	}
	return id, nil
}

// Cancel cancels one of this participant's resting orders.
func (s *TradingService) Cancel(orderID string) error {
	if err := domain.ValidateOrderID(orderID); err != nil {
		return err
	}
	if domain.ParticipantCode(orderID) != s.code {
		return &domain.ValidationError{
			Field:   "order_id",
			Message: fmt.Sprintf("order %s does not belong to participant %s", orderID, s.code),
		}
	}
	return s.eng.Cancel(orderID)
}

// Issued returns how many order ids this client has assigned.
func (s *TradingService) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *TradingService) nextID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= MaxOrdersPerParticipant {
		return "", fmt.Errorf("%w: participant %s", domain.ErrOrderIDSpaceExhausted, s.code)
	}
	id := fmt.Sprintf("%s%04d", s.code, s.next)
	s.next++
	return id, nil
}
