package store

import (
	"sync"

	"github.com/efreitasn/matchbook/internal/domain"
)

// ExecutionStore is a thread-safe in-memory history of executions.
// Executions are append-only and in sequence order.
type ExecutionStore struct {
	mu      sync.RWMutex
	execs   []domain.Execution
	byOrder map[string][]int // order_id → positions of executions involving it
}

// NewExecutionStore creates an empty ExecutionStore.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		byOrder: make(map[string][]int),
	}
}

// Append adds an execution and indexes it under both order ids.
func (s *ExecutionStore) Append(ex domain.Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := len(s.execs)
	s.execs = append(s.execs, ex)
	s.byOrder[ex.BidOrderID] = append(s.byOrder[ex.BidOrderID], pos)
	s.byOrder[ex.OfferOrderID] = append(s.byOrder[ex.OfferOrderID], pos)
}

// All returns every execution in sequence order. The returned slice is a
// copy.
func (s *ExecutionStore) All() []domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Execution, len(s.execs))
	copy(out, s.execs)
	return out
}

// ByOrderID returns the executions in which id was the bid or the offer.
// Returns an empty slice if there are none.
func (s *ExecutionStore) ByOrderID(id string) []domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byOrder[id]
	out := make([]domain.Execution, len(positions))
	for i, pos := range positions {
		out[i] = s.execs[pos]
	}
	return out
}

// FilledQuantity sums the traded quantity of every execution involving id.
func (s *ExecutionStore) FilledQuantity(id string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, pos := range s.byOrder[id] {
		total += s.execs[pos].Quantity
	}
	return total
}

// Len returns the number of executions recorded.
func (s *ExecutionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.execs)
}
