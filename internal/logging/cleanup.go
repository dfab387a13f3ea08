package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/relvanta/relvanta-api/internal/repository"
)

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retentionDays. It stops when done is closed.
func StartCleanup(sink repository.LogRepository, retentionDays int, done <-chan struct{}) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep(context.Background(), sink, time.Now(), retentionDays)
			case <-done:
				return
			}
		}
	}()
}

func sweep(ctx context.Context, sink repository.LogRepository, now time.Time, retentionDays int) {
	cutoff := now.UTC().AddDate(0, 0, -retentionDays)
	deleted, err := sink.DeleteSystemLogsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}
