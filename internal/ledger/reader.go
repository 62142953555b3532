package ledger

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/efreitasn/matchbook/internal/domain"
)

// ReadOrders streams the order-stream file at path to fn in file order.
// Sequence numbers must be strictly increasing; a line that breaks the
// order is reported before fn sees it.
func ReadOrders(ctx context.Context, path string, fn func(domain.OrderRecord) error) error {
	return scan(ctx, path, func(line string) (domain.OrderRecord, uint64, error) {
		rec, err := ParseOrder(line)
		return rec, rec.Seq, err
	}, fn)
}

// ReadExecutions streams an execution-stream file to fn in file order.
func ReadExecutions(ctx context.Context, path string, fn func(domain.Execution) error) error {
	return scan(ctx, path, func(line string) (domain.Execution, uint64, error) {
		ex, err := ParseExecution(line)
		return ex, ex.Seq, err
	}, fn)
}

// ReadMerged streams a merged-stream file to fn in file order.
func ReadMerged(ctx context.Context, path string, fn func(Entry) error) error {
	return scan(ctx, path, func(line string) (Entry, uint64, error) {
		e, err := ParseEntry(line)
		if err != nil {
			return e, 0, err
		}
		return e, e.Seq(), nil
	}, fn)
}

// scan parses every non-blank line, checks that sequence numbers strictly
// increase and only then passes the value to fn. Context cancellation is
// checked between lines.
func scan[T any](ctx context.Context, path string, parse func(line string) (T, uint64, error), fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ledger stream: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var (
		lineNo  int
		lastSeq uint64
		seen    bool
	)
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		v, seq, err := parse(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if seen && seq <= lastSeq {
			return fmt.Errorf("%s:%d: %w: non-monotonic seq %d after %d", path, lineNo, ErrMalformedLine, seq, lastSeq)
		}
		lastSeq, seen = seq, true

		if err := fn(v); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
