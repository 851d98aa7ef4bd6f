package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
)

// withHeartbeat runs fn while recording heartbeats, so a cancelled run
// reaches the activity before its start-to-close timeout does.
func (a *Activities) withHeartbeat(ctx context.Context, stage string, fn func(context.Context) error) error {
	done := make(chan struct{})
	defer close(done)

	activity.RecordHeartbeat(ctx, stage)
	go func() {
		ticker := time.NewTicker(a.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, stage)
			}
		}
	}()

	return fn(ctx)
}
