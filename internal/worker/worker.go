package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/fundhaven/screening-backend/internal/screening"
)

// Start runs a goroutine that periodically processes pending screening jobs
// until done is closed. Workers are stateless; any number may run against
// the shared store, on any host.
func Start(orch *screening.Orchestrator, interval time.Duration, batchSize int, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				result, err := orch.ProcessPending(context.Background(), batchSize)
				if err != nil {
					slog.Error("screening batch failed", "error", err.Error())
					continue
				}
				if result.Claimed > 0 {
					slog.Info("screening batch processed",
						"claimed", result.Claimed,
						"completed", result.Completed,
						"failed", result.Failed)
				}
			case <-done:
				return
			}
		}
	}()
}
