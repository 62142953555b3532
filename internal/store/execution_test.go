package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/matchbook/internal/domain"
)

func newTestExecution(seq uint64, bid, offer string, qty int64) domain.Execution {
	return domain.Execution{
		ExecID:       domain.ExecutionID(seq),
		Seq:          seq,
		Timestamp:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		BuyerCode:    domain.ParticipantCode(bid),
		BidOrderID:   bid,
		SellerCode:   domain.ParticipantCode(offer),
		OfferOrderID: offer,
		Price:        1000,
		Quantity:     qty,
	}
}

func TestExecutionStore_Append_and_All(t *testing.T) {
	s := NewExecutionStore()
	s.Append(newTestExecution(2, "aa0001", "bb0001", 10))
	s.Append(newTestExecution(4, "aa0001", "cc0001", 5))

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(all))
	}
	if all[0].ExecID != "EX0002" || all[1].ExecID != "EX0004" {
		t.Fatalf("expected sequence order, got %s, %s", all[0].ExecID, all[1].ExecID)
	}
}

func TestExecutionStore_All_Empty(t *testing.T) {
	s := NewExecutionStore()

	all := s.All()
	if all == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(all) != 0 {
		t.Fatalf("expected 0 executions, got %d", len(all))
	}
}

func TestExecutionStore_ByOrderID_BothSides(t *testing.T) {
	s := NewExecutionStore()
	s.Append(newTestExecution(2, "aa0001", "bb0001", 10))
	s.Append(newTestExecution(4, "cc0001", "bb0001", 5))
	s.Append(newTestExecution(6, "cc0001", "dd0001", 1))

	if got := s.ByOrderID("bb0001"); len(got) != 2 {
		t.Fatalf("expected 2 executions for bb0001, got %d", len(got))
	}
	if got := s.ByOrderID("aa0001"); len(got) != 1 {
		t.Fatalf("expected 1 execution for aa0001, got %d", len(got))
	}
	if got := s.FilledQuantity("bb0001"); got != 15 {
		t.Fatalf("FilledQuantity(bb0001) = %d, want 15", got)
	}
	if got := s.FilledQuantity("zz0000"); got != 0 {
		t.Fatalf("FilledQuantity(zz0000) = %d, want 0", got)
	}
}

func TestExecutionStore_ConcurrentAccess(t *testing.T) {
	s := NewExecutionStore()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Append(newTestExecution(uint64(i), "aa0001", fmt.Sprintf("bb%04d", i), 1))
		}(i)
		go func() {
			defer wg.Done()
			s.FilledQuantity("aa0001")
		}()
	}
	wg.Wait()

	if got := s.FilledQuantity("aa0001"); got != 100 {
		t.Fatalf("expected 100 filled, got %d", got)
	}
}
