package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/efreitasn/matchbook/internal/domain"
	"github.com/efreitasn/matchbook/internal/ledger"
)

var (
	// ErrReplayTargetInUse is returned when Replay is pointed at an engine
	// that has already issued sequence numbers or is already replaying.
	ErrReplayTargetInUse = errors.New("replay_target_in_use")
	// ErrReplayInProgress is returned by Submit and Cancel while a replay
	// owns the engine.
	ErrReplayInProgress = errors.New("replay_in_progress")
)

// ReplayStats summarises a replay run.
type ReplayStats struct {
	Arrivals   int // arrivals accepted by the target
	Executions int // executions the target produced
	Rejected   int // logged arrivals the target refused
}

// Replay rebuilds dst from the order stream of the ledger in srcDir.
// Each logged arrival goes through the normal arrival path with its logged
// timestamp, so resting state and the execution history are re-derived;
// execution timestamps are new. Cancellations are not logged and so are not
// reproduced.
//
// dst refuses Submit and Cancel with ErrReplayInProgress until Replay
// returns.
//
// An arrival the target rejects for validation or as a duplicate is
// counted and skipped. Any other failure, including a halt of dst, aborts
// the replay.
func Replay(ctx context.Context, srcDir string, dst *Engine) (ReplayStats, error) {
	var stats ReplayStats

	dst.mu.Lock()
	if dst.seq.Peek() != 0 || dst.replaying {
		dst.mu.Unlock()
		return stats, fmt.Errorf("%w: %s", ErrReplayTargetInUse, dst.Name())
	}
	dst.replaying = true
	dst.mu.Unlock()
	defer func() {
		dst.mu.Lock()
		dst.replaying = false
		dst.mu.Unlock()
	}()

	path := ledger.OrdersPath(srcDir)
	dst.logger.Info("replay started", slog.String("source", path))

	err := ledger.ReadOrders(ctx, path, func(rec domain.OrderRecord) error {
		res, err := dst.submit(rec.Arrival(), rec.Timestamp, true)
		if err != nil {
			if skippable(err) {
				stats.Rejected++
				dst.logger.Warn("replay skipped arrival",
					slog.Uint64("source_seq", rec.Seq),
					slog.String("order_id", rec.OrderID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			return fmt.Errorf("replay seq %d: %w", rec.Seq, err)
		}
		stats.Arrivals++
		stats.Executions += len(res.Executions)
		return nil
	})
	if err != nil {
		return stats, err
	}

	dst.logger.Info("replay finished",
		slog.Int("arrivals", stats.Arrivals),
		slog.Int("executions", stats.Executions),
		slog.Int("rejected", stats.Rejected),
	)
	return stats, nil
}

func skippable(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, domain.ErrMalformedOrderID) ||
		errors.Is(err, domain.ErrDuplicateOrderID)
}
