package leader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/temporal"
	"github.com/clintrovert/relnotes/pkg/types"
)

// DefaultHealthInterval is how often the Temporal connection is probed.
const DefaultHealthInterval = 15 * time.Second

// Runner starts and tracks release-notes runs
type Runner interface {
	RunReleaseNotes(ctx context.Context, commitLog string) (*types.FinalResult, error)
	StartReleaseNotes(ctx context.Context, commitLog string) (string, error)
	DescribeRun(ctx context.Context, workflowID string) (*temporal.RunStatus, error)
	CancelRun(ctx context.Context, workflowID string) error
	CheckHealth(ctx context.Context) error
}

// HealthReporter publishes whether the leader can serve requests
type HealthReporter interface {
	SetServing(serving bool)
}

// Orchestrator fronts the workflow engine for the API layers and keeps the
// reported health in step with the Temporal connection.
type Orchestrator struct {
	runner   Runner
	health   HealthReporter
	interval time.Duration
	logger   *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(runner Runner, health HealthReporter, interval time.Duration, logger *zap.Logger) *Orchestrator {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &Orchestrator{
		runner:   runner,
		health:   health,
		interval: interval,
		logger:   logger,
	}
}

// Start probes the Temporal connection until ctx is done, then reports the
// leader as not serving.
func (o *Orchestrator) Start(ctx context.Context) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	serving := o.probe(ctx, false)
	for {
		select {
		case <-ctx.Done():
			o.health.SetServing(false)
			return ctx.Err()
		case <-ticker.C:
			serving = o.probe(ctx, serving)
		}
	}
}

func (o *Orchestrator) probe(ctx context.Context, wasServing bool) bool {
	checkCtx, cancel := context.WithTimeout(ctx, o.interval)
	defer cancel()

	err := o.runner.CheckHealth(checkCtx)
	serving := err == nil
	if serving != wasServing {
		if err != nil {
			o.logger.Warn("temporal unreachable", zap.Error(err))
		} else {
			o.logger.Info("temporal reachable")
		}
	}
	o.health.SetServing(serving)
	return serving
}

// Generate runs the pipeline for commitLog and waits for the result.
// Cancelling ctx cancels the run.
func (o *Orchestrator) Generate(ctx context.Context, commitLog string) (*types.FinalResult, error) {
	start := time.Now()
	result, err := o.runner.RunReleaseNotes(ctx, commitLog)
	if err != nil {
		return nil, fmt.Errorf("failed to generate release notes: %w", err)
	}

	o.logger.Info("generated release notes",
		zap.String("version", result.Version),
		zap.Bool("refined", result.Refined),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Submit starts a run without waiting for it.
func (o *Orchestrator) Submit(ctx context.Context, commitLog string) (string, error) {
	id, err := o.runner.StartReleaseNotes(ctx, commitLog)
	if err != nil {
		return "", fmt.Errorf("failed to start release notes run: %w", err)
	}
	return id, nil
}

// Status reports a run's status.
func (o *Orchestrator) Status(ctx context.Context, runID string) (*temporal.RunStatus, error) {
	return o.runner.DescribeRun(ctx, runID)
}

// Cancel stops a run.
func (o *Orchestrator) Cancel(ctx context.Context, runID string) error {
	return o.runner.CancelRun(ctx, runID)
}
