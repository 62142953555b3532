package store

import (
	"sync"

	"github.com/efreitasn/matchbook/internal/domain"
)

// ArrivalStore is a thread-safe in-memory history of accepted arrivals,
// with a primary index by order_id and a secondary index by participant.
// It mirrors the order stream for in-process queries; the ledger remains
// the durable record.
type ArrivalStore struct {
	mu            sync.RWMutex
	records       []domain.OrderRecord
	byOrder       map[string]int   // order_id → latest position in records
	byParticipant map[string][]int // participant code → positions (append-only)
}

// NewArrivalStore creates an empty ArrivalStore.
func NewArrivalStore() *ArrivalStore {
	return &ArrivalStore{
		byOrder:       make(map[string]int),
		byParticipant: make(map[string][]int),
	}
}

// Append records an arrival.
func (s *ArrivalStore) Append(rec domain.OrderRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := len(s.records)
	s.records = append(s.records, rec)
	s.byOrder[rec.OrderID] = pos
	s.byParticipant[rec.Participant] = append(s.byParticipant[rec.Participant], pos)
}

// Get returns the most recent arrival logged under id. It returns
// domain.ErrOrderNotFound if there is none.
func (s *ArrivalStore) Get(id string) (domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byOrder[id]
	if !ok {
		return domain.OrderRecord{}, domain.ErrOrderNotFound
	}
	return s.records[pos], nil
}

// ListByParticipant returns a participant's arrivals in sequence order.
func (s *ArrivalStore) ListByParticipant(code string) []domain.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byParticipant[code]
	out := make([]domain.OrderRecord, len(positions))
	for i, pos := range positions {
		out[i] = s.records[pos]
	}
	return out
}

// All returns every arrival in sequence order.
func (s *ArrivalStore) All() []domain.OrderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.OrderRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of arrivals recorded.
func (s *ArrivalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
