package domain

import "errors"

// Sentinel errors for domain-level error handling.
var (
	ErrMalformedOrderID      = errors.New("malformed_order_id")
	ErrDuplicateOrderID      = errors.New("duplicate_order_id")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrLedgerWrite           = errors.New("ledger_write_failure")
	ErrLedgerExists          = errors.New("ledger_exists")
	ErrEngineHalted          = errors.New("engine_halted")
	ErrCorruptBook           = errors.New("corrupt_book")
	ErrOrderIDSpaceExhausted = errors.New("order_id_space_exhausted")
)

// ValidationError represents an order that failed boundary validation.
// It is reported to the submitting participant; the order never reaches
// the book and no sequence number is consumed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LedgerWriteError reports a failed append to one of the ledger streams.
// It matches ErrLedgerWrite under errors.Is.
type LedgerWriteError struct {
	Stream string
	Err    error
}

func (e *LedgerWriteError) Error() string {
	return ErrLedgerWrite.Error() + ": " + e.Stream + ": " + e.Err.Error()
}

func (e *LedgerWriteError) Is(target error) bool {
	return target == ErrLedgerWrite
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}
