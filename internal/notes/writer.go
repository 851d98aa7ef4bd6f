// Package notes implements the judgment stages of release-note generation:
// classification, enrichment, drafting and refinement. Every stage delegates
// to an llm.Client and validates what comes back before trusting it.
package notes

import (
	"context"

	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/pkg/types"
)

// Writer performs the collaborator-backed stages of the pipeline
type Writer interface {
	Classify(ctx context.Context, commits []types.RawCommit) ([]types.ClassifiedCommit, error)
	EnrichFeatures(ctx context.Context, features []types.ClassifiedCommit, instructions string) ([]types.EnrichedCommit, error)
	EnrichChanges(ctx context.Context, in ChangesInput) (types.EnrichedChanges, error)
	Draft(ctx context.Context, in DraftInput) (*types.Draft, error)
	Refine(ctx context.Context, in DraftInput, draft types.Draft) (string, error)
}

// ChangesInput is the fix/performance/maintenance half of a categorized batch
type ChangesInput struct {
	Fixes        []types.ClassifiedCommit
	Performance  []types.ClassifiedCommit
	Maintenance  []types.ClassifiedCommit
	Instructions string
}

// Empty reports whether all three buckets are empty
func (in ChangesInput) Empty() bool {
	return len(in.Fixes) == 0 && len(in.Performance) == 0 && len(in.Maintenance) == 0
}

// DraftInput carries everything the drafter and refiner see
type DraftInput struct {
	Version      string
	Date         string // "January 2006"
	Features     []types.EnrichedCommit
	Fixes        []types.EnrichedCommit
	Performance  []types.EnrichedCommit
	Maintenance  []types.EnrichedCommit
	Instructions string
	Request      string
}

// AIWriter implements Writer on top of an llm.Client
type AIWriter struct {
	client llm.Client
	logger *zap.Logger
}

// NewAIWriter creates a new AI writer
func NewAIWriter(client llm.Client, logger *zap.Logger) *AIWriter {
	return &AIWriter{
		client: client,
		logger: logger,
	}
}

// Compile-time interface verification.
var _ Writer = (*AIWriter)(nil)
