package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/matchbook/internal/domain"
	"github.com/efreitasn/matchbook/internal/store"
)

// Journal receives every arrival and execution in sequence order. A
// returned error is fatal for the engine.
type Journal interface {
	AppendOrder(rec domain.OrderRecord) error
	AppendExecution(ex domain.Execution) error
}

// Result describes what happened to one arrival.
type Result struct {
	Seq        uint64
	Timestamp  time.Time
	Executions []domain.Execution
	// Remaining is the quantity left resting on the book; zero when the
	// arrival was fully filled.
	Remaining int64
}

// Rested reports whether any of the arrival was added to the book.
func (r *Result) Rested() bool {
	return r.Remaining > 0
}

// Option configures an Engine.
type Option func(*Engine)

// WithName sets the instance name used in diagnostics.
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock replaces time.Now for arrival and execution timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewInstanceName returns a fresh engine instance name.
func NewInstanceName() string {
	return "me-" + uuid.NewString()[:8]
}

// Engine is a single-book matching engine. One mutex guards the book, the
// sequence allocator and the journal, so every arrival, cancellation and
// snapshot runs as one atomic unit.
type Engine struct {
	mu         sync.Mutex
	name       string
	book       *OrderBook
	seq        *SequenceAllocator
	journal    Journal
	arrivals   *store.ArrivalStore
	executions *store.ExecutionStore
	now        func() time.Time
	logger     *slog.Logger
	halted     error // first fatal error; set once, never cleared
	replaying  bool  // set while Replay feeds the engine
}

// New creates an engine writing to journal.
func New(journal Journal, opts ...Option) *Engine {
	e := &Engine{
		book:       NewOrderBook(),
		seq:        NewSequenceAllocator(0),
		journal:    journal,
		arrivals:   store.NewArrivalStore(),
		executions: store.NewExecutionStore(),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.name == "" {
		e.name = NewInstanceName()
	}
	e.logger = e.logger.With(slog.String("engine", e.name))
	return e
}

// Name returns the instance name.
func (e *Engine) Name() string {
	return e.name
}

// Submit runs an arrival through the matching algorithm using the
// current time as its timestamp.
func (e *Engine) Submit(a domain.Arrival) (*Result, error) {
	return e.submit(a, time.Time{}, false)
}

// submit is the arrival path shared by Submit and Replay. A zero ts means
// "now". While a replay is running only the replay itself may submit.
//
// Validation happens before a sequence number is consumed. Once the
// arrival is logged the match always runs to completion unless the
// journal fails, in which case the engine halts.
func (e *Engine) submit(a domain.Arrival, ts time.Time, fromReplay bool) (*Result, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEngineHalted, e.halted)
	}
	if e.replaying && !fromReplay {
		return nil, ErrReplayInProgress
	}
	// Order ids are unique for the life of the engine, not just while
	// resting.
	if _, err := e.arrivals.Get(a.OrderID); err == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateOrderID, a.OrderID)
	}

	// Step 1: Sequence and timestamp.
	if ts.IsZero() {
		ts = e.now()
	}
	rec := domain.OrderRecord{
		Seq:         e.seq.Next(),
		Side:        a.Side,
		Participant: domain.ParticipantCode(a.OrderID),
		OrderID:     a.OrderID,
		Timestamp:   ts,
		Price:       a.Price,
		Quantity:    a.Quantity,
	}

	// Step 2: Log the arrival before attempting a match.
	if err := e.journal.AppendOrder(rec); err != nil {
		return nil, e.halt(err)
	}
	e.arrivals.Append(rec)
	e.logger.Debug("order accepted",
		slog.Uint64("seq", rec.Seq),
		slog.String("order_id", rec.OrderID),
		slog.String("side", rec.Side.String()),
		slog.String("price", rec.Price.String()),
		slog.Int64("qty", rec.Quantity),
	)

	res := &Result{Seq: rec.Seq, Timestamp: ts}
	remaining := a.Quantity

	// Step 3: Match loop.
	for remaining > 0 {
		// Step 3a: Peek best opposite. An opposite queue holding only
		// tombstones drains to empty here and ends the loop.
		best, found := e.book.Best(a.Side.Opposite())
		if !found {
			break
		}

		// Step 3b: Crossing test.
		if !crosses(a.Side, a.Price, best.Price) {
			break
		}

		// Step 3c: Trade size; price is the resting order's.
		fillQty := min(remaining, best.Quantity)

		// Step 3d: Reduce both sides.
		if _, err := e.book.ReduceOrRemove(best.OrderID, fillQty); err != nil {
			return res, e.halt(err)
		}
		remaining -= fillQty

		// Step 3e: Record the execution.
		ex := e.newExecution(a, best, fillQty)
		if err := e.journal.AppendExecution(ex); err != nil {
			return res, e.halt(err)
		}
		e.executions.Append(ex)
		res.Executions = append(res.Executions, ex)
		e.logger.Debug("execution",
			slog.Uint64("seq", ex.Seq),
			slog.String("exec_id", ex.ExecID),
			slog.String("bid", ex.BidOrderID),
			slog.String("offer", ex.OfferOrderID),
			slog.String("price", ex.Price.String()),
			slog.Int64("qty", ex.Quantity),
		)
	}

	// Step 4: Rest the remainder.
	if remaining > 0 {
		e.book.InsertResting(a.Side, a.Price, remaining, ts, a.OrderID, rec.Seq)
	}
	res.Remaining = remaining

	return res, nil
}

// crosses reports whether an arrival at price on side can trade against
// a resting opposite order at restingPrice.
func crosses(side domain.Side, price, restingPrice domain.Price) bool {
	if side == domain.SideBuy {
		return price >= restingPrice
	}
	return price <= restingPrice
}

func (e *Engine) newExecution(a domain.Arrival, resting RestingOrder, qty int64) domain.Execution {
	seq := e.seq.Next()
	ex := domain.Execution{
		ExecID:    domain.ExecutionID(seq),
		Seq:       seq,
		Timestamp: e.now(),
		Price:     resting.Price,
		Quantity:  qty,
	}
	if a.Side == domain.SideBuy {
		ex.BidOrderID, ex.OfferOrderID = a.OrderID, resting.OrderID
	} else {
		ex.BidOrderID, ex.OfferOrderID = resting.OrderID, a.OrderID
	}
	ex.BuyerCode = domain.ParticipantCode(ex.BidOrderID)
	ex.SellerCode = domain.ParticipantCode(ex.OfferOrderID)
	return ex
}

// halt records the first fatal error. Every later mutation fails with
// ErrEngineHalted.
func (e *Engine) halt(err error) error {
	if e.halted == nil {
		e.halted = err
		e.logger.Error("engine halted", slog.String("error", err.Error()))
	}
	return err
}

// Cancel removes a resting order. Only the unfilled remainder is
// cancelled; executions already logged are unaffected. It returns
// domain.ErrOrderNotFound when id is not resting.
func (e *Engine) Cancel(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineHalted, e.halted)
	}
	if e.replaying {
		return ErrReplayInProgress
	}

	o, err := e.book.Cancel(orderID)
	if err != nil {
		e.logger.Warn("cancel rejected", slog.String("order_id", orderID))
		return err
	}
	e.logger.Debug("order cancelled",
		slog.String("order_id", o.OrderID),
		slog.Int64("remaining", o.Quantity),
	)
	return nil
}

// Snapshot returns a ranked view of the book taken under the engine lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.book.Snapshot()
	s.NextSeq = e.seq.Peek()
	return s
}

// Resting looks up a live order by id.
func (e *Engine) Resting(orderID string) (RestingOrder, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Resting(orderID)
}

// BestBid returns the best live bid, if any.
func (e *Engine) BestBid() (RestingOrder, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Best(domain.SideBuy)
}

// BestOffer returns the best live offer, if any.
func (e *Engine) BestOffer() (RestingOrder, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Best(domain.SideSell)
}

// Arrivals returns every accepted arrival in sequence order.
func (e *Engine) Arrivals() []domain.OrderRecord {
	return e.arrivals.All()
}

// Executions returns every execution in sequence order.
func (e *Engine) Executions() []domain.Execution {
	return e.executions.All()
}

// ExecutionsFor returns the executions involving orderID.
func (e *Engine) ExecutionsFor(orderID string) []domain.Execution {
	return e.executions.ByOrderID(orderID)
}

// Arrival returns the accepted arrival logged under orderID, or
// domain.ErrOrderNotFound.
func (e *Engine) Arrival(orderID string) (domain.OrderRecord, error) {
	return e.arrivals.Get(orderID)
}

// ParticipantArrivals returns a participant's accepted arrivals in
// sequence order.
func (e *Engine) ParticipantArrivals(code string) []domain.OrderRecord {
	return e.arrivals.ListByParticipant(code)
}

// Filled returns the quantity traded so far by orderID.
func (e *Engine) Filled(orderID string) int64 {
	return e.executions.FilledQuantity(orderID)
}

// Counts returns the number of accepted arrivals and executions.
func (e *Engine) Counts() (arrivals, executions int) {
	return e.arrivals.Len(), e.executions.Len()
}

// Halted returns the error that halted the engine, or nil.
func (e *Engine) Halted() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}
