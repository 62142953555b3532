// Package ledger writes and reads the engine's append-only text logs.
//
// A ledger directory holds three streams. The order stream has one line per
// accepted arrival, the execution stream one line per trade, and the merged
// stream every line of both in global sequence order. Lines are written
// with a single unbuffered write and never rewritten, so external tools may
// tail the files while the engine runs.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/efreitasn/matchbook/internal/domain"
)

// Stream file names inside a ledger directory.
const (
	OrdersFile     = "orders.log"
	ExecutionsFile = "executions.log"
	MergedFile     = "merged.log"
)

// Stream names used in LedgerWriteError.
const (
	StreamOrders     = "orders"
	StreamExecutions = "executions"
	StreamMerged     = "merged"
)

// Options configures a Ledger.
type Options struct {
	// Sync fsyncs each file after every line.
	Sync bool
}

// Ledger is the writer side of a ledger directory.
type Ledger struct {
	mu         sync.Mutex
	dir        string
	sync       bool
	orders     *os.File
	executions *os.File
	merged     *os.File
}

// Open creates a new ledger in dir. The three stream files must not
// already exist: an existing ledger is never reopened, so its lines can
// never be truncated or interleaved with a second run's.
func Open(dir string, opts Options) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	l := &Ledger{dir: dir, sync: opts.Sync}
	var err error
	if l.orders, err = create(filepath.Join(dir, OrdersFile)); err != nil {
		return nil, err
	}
	if l.executions, err = create(filepath.Join(dir, ExecutionsFile)); err != nil {
		_ = l.orders.Close()
		return nil, err
	}
	if l.merged, err = create(filepath.Join(dir, MergedFile)); err != nil {
		_ = l.orders.Close()
		_ = l.executions.Close()
		return nil, err
	}
	return l, nil
}

func create(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLedgerExists, path)
		}
		return nil, fmt.Errorf("open ledger stream: %w", err)
	}
	return f, nil
}

// Dir returns the ledger directory.
func (l *Ledger) Dir() string {
	return l.dir
}

// AppendOrder writes an arrival to the order and merged streams.
func (l *Ledger) AppendOrder(rec domain.OrderRecord) error {
	return l.append(l.orders, StreamOrders, FormatOrder(rec))
}

// AppendExecution writes a trade to the execution and merged streams.
func (l *Ledger) AppendExecution(ex domain.Execution) error {
	return l.append(l.executions, StreamExecutions, FormatExecution(ex))
}

func (l *Ledger) append(f *os.File, stream, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeLine(f, line); err != nil {
		return &domain.LedgerWriteError{Stream: stream, Err: err}
	}
	if err := l.writeLine(l.merged, line); err != nil {
		return &domain.LedgerWriteError{Stream: StreamMerged, Err: err}
	}
	return nil
}

func (l *Ledger) writeLine(f *os.File, line string) error {
	if _, err := f.WriteString(line); err != nil {
		return err
	}
	if l.sync {
		return f.Sync()
	}
	return nil
}

// Close closes all three streams.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return errors.Join(l.orders.Close(), l.executions.Close(), l.merged.Close())
}

// OrdersPath returns the order-stream path of the ledger in dir.
func OrdersPath(dir string) string {
	return filepath.Join(dir, OrdersFile)
}

// ExecutionsPath returns the execution-stream path of the ledger in dir.
func ExecutionsPath(dir string) string {
	return filepath.Join(dir, ExecutionsFile)
}

// MergedPath returns the merged-stream path of the ledger in dir.
func MergedPath(dir string) string {
	return filepath.Join(dir, MergedFile)
}
