package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bollette/internal/amqp"
)

// Refresher reconciles the local mirror against the remote store.
type Refresher interface {
	Refresh(ctx context.Context) (changed bool, err error)
}

// staleMessageAge is the age beyond which a queued refresh message is ignored:
// the periodic tick has long since covered it.
const staleMessageAge = time.Hour

// RefreshWorker keeps the mirror converging on the remote store. It refreshes
// on demand when a refresh message arrives and on a fixed interval as a
// backstop for lost messages.
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
}

func NewRefreshWorker(refresher Refresher, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		refresher: refresher,
		interval:  interval,
	}
}

// HandleRefreshMessage processes a single refresh message from AMQP.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshMessage) error {
	if !msg.Timestamp.IsZero() && time.Since(msg.Timestamp) > staleMessageAge {
		slog.WarnContext(ctx, "Ignoring stale refresh message",
			"reason", msg.Reason,
			"age", time.Since(msg.Timestamp).Round(time.Second))
		return nil
	}

	changed, err := w.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh on message %q: %w", msg.Reason, err)
	}

	slog.InfoContext(ctx, "Processed refresh message",
		"reason", msg.Reason,
		"changed", changed)
	return nil
}

// Run performs a startup refresh and then refreshes every interval until ctx
// is canceled. Periodic failures are logged, not fatal: the next tick retries.
func (w *RefreshWorker) Run(ctx context.Context) error {
	if _, err := w.refresher.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup refresh failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed, err := w.refresher.Refresh(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Periodic refresh failed", "error", err)
				continue
			}
			if changed {
				slog.InfoContext(ctx, "Periodic refresh updated mirror")
			}
		}
	}
}
