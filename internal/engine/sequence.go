package engine

// SequenceAllocator issues the single monotonically increasing sequence
// shared by arrivals and executions. It is not synchronised; the engine's
// critical section guards it together with the book and the journal.
type SequenceAllocator struct {
	next uint64
}

// NewSequenceAllocator returns an allocator whose first Next is start.
func NewSequenceAllocator(start uint64) *SequenceAllocator {
	return &SequenceAllocator{next: start}
}

// Next returns the next sequence number and advances the counter.
func (s *SequenceAllocator) Next() uint64 {
	n := s.next
	s.next++
	return n
}

// Peek returns the number the next call to Next will issue.
func (s *SequenceAllocator) Peek() uint64 {
	return s.next
}
