package services

import (
	"context"
	"log/slog"

	"bollette/internal/core"
	"bollette/internal/mirror"
)

// optimisticCommit stages a local mutation on the mirror, attempts the remote
// effect, and restores the pre-mutation snapshot when the remote effect
// fails. The snapshot restore is the single compensating action this
// application supports; there is no deeper undo stack.
func optimisticCommit(ctx context.Context, m *mirror.Mirror, apply func(core.Collection) core.Collection, remote func(context.Context) error) error {
	snap := m.Snapshot()

	if err := m.Update(apply); err != nil {
		return err
	}

	if err := remote(ctx); err != nil {
		if restoreErr := m.Restore(snap); restoreErr != nil {
			slog.ErrorContext(ctx, "Rollback of optimistic update failed",
				"remote_error", err,
				"restore_error", restoreErr)
		}
		return err
	}

	return nil
}
