package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/clintrovert/relnotes/internal/activities"
	"github.com/clintrovert/relnotes/internal/changelog"
	"github.com/clintrovert/relnotes/internal/notes"
	"github.com/clintrovert/relnotes/pkg/types"
)

const (
	// DefaultStageTimeout bounds a single pipeline stage.
	DefaultStageTimeout = 2 * time.Minute
	heartbeatTimeout    = 30 * time.Second
	releaseDateLayout   = "January 2006"
)

// ReleaseNotesWorkflow turns a commit log into Markdown release notes
func ReleaseNotesWorkflow(ctx workflow.Context, input WorkflowInput) (*types.FinalResult, error) {
	logger := workflow.GetLogger(ctx)

	req := changelog.ParseRequest(input.CommitLog)
	logger.Info("starting release notes workflow",
		"from_ref", req.FromRef,
		"to_ref", req.ToRef,
		"has_instructions", req.Instructions != "",
	)

	timeout := input.StageTimeout
	if timeout <= 0 {
		timeout = DefaultStageTimeout
	}
	noRetry := &temporal.RetryPolicy{MaximumAttempts: 1}
	collectCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         noRetry,
	})
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    heartbeatTimeout,
		RetryPolicy:         noRetry,
	})

	var a *activities.Activities

	// Step 1: Collect commits
	commits := uniqueCommits(input.Commits)
	if dropped := len(input.Commits) - len(commits); dropped > 0 {
		logger.Warn("dropped repeated commits from input", "dropped", dropped)
	}
	currentVersion := input.CurrentVersion
	if len(commits) == 0 {
		var collected activities.CollectResult
		err := workflow.ExecuteActivity(collectCtx, a.CollectCommits, activities.CollectInput{
			FromRef:       req.FromRef,
			ToRef:         req.ToRef,
			VersionSource: input.VersionSource,
		}).Get(ctx, &collected)
		if err != nil {
			logger.Error("failed to collect commits", "error", err)
			return nil, err
		}
		commits = collected.Commits
		if currentVersion == "" {
			currentVersion = collected.CurrentVersion
		}
	}

	// Step 2: Classify
	var classified []types.ClassifiedCommit
	err := workflow.ExecuteActivity(ctx, a.ClassifyCommits, commits).Get(ctx, &classified)
	if err != nil {
		logger.Error("failed to classify commits", "error", err)
		return nil, err
	}

	// Step 3: Categorize
	batch, err := changelog.Categorize(req, classified, currentVersion)
	if err != nil {
		logger.Error("failed to categorize commits", "error", err)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), activities.ErrTypeInvalidVersion, err)
	}
	logger.Info("categorized commits",
		"features", len(batch.Features),
		"fixes", len(batch.Fixes),
		"performance", len(batch.Performance),
		"maintenance", len(batch.Maintenance),
		"bump", batch.VersionBump,
		"version", batch.SuggestedVersion,
	)

	// Step 4: Enrich both halves concurrently
	features, changes, err := enrich(ctx, batch)
	if err != nil {
		logger.Error("failed to enrich commits", "error", err)
		return nil, err
	}

	// Step 5: Draft
	draftIn := notes.DraftInput{
		Version:      batch.SuggestedVersion,
		Date:         workflow.Now(ctx).Format(releaseDateLayout),
		Features:     features,
		Fixes:        changes.Fixes,
		Performance:  changes.Performance,
		Maintenance:  changes.Maintenance,
		Instructions: batch.Instructions,
		Request:      input.CommitLog,
	}
	var draft types.Draft
	err = workflow.ExecuteActivity(ctx, a.DraftReleaseNotes, draftIn).Get(ctx, &draft)
	if err != nil {
		logger.Error("failed to draft release notes", "error", err)
		return nil, err
	}

	// Step 6: Quality gate
	outcome, err := gate(ctx, draftIn, draft)
	if err != nil {
		logger.Error("failed to refine draft", "error", err)
		return nil, err
	}

	// Step 7: Finalize
	result, err := finalize(ctx, outcome)
	if err != nil {
		return nil, err
	}

	logger.Info("release notes workflow completed",
		"version", result.Version,
		"refined", result.Refined,
	)
	return result, nil
}

// enrich runs the feature and change branches side by side and waits for
// both. The first failure cancels the other branch. An empty branch schedules
// no activity.
func enrich(ctx workflow.Context, batch types.CategorizedBatch) ([]types.EnrichedCommit, types.EnrichedChanges, error) {
	var a *activities.Activities

	ctx, cancel := workflow.WithCancel(ctx)
	defer cancel()

	features := []types.EnrichedCommit{}
	changes := types.EnrichedChanges{
		Fixes:       []types.EnrichedCommit{},
		Performance: []types.EnrichedCommit{},
		Maintenance: []types.EnrichedCommit{},
	}

	var (
		firstErr error
		pending  int
	)
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	selector := workflow.NewSelector(ctx)

	if len(batch.Features) > 0 {
		pending++
		f := workflow.ExecuteActivity(ctx, a.EnrichFeatures, activities.EnrichFeaturesInput{
			Features:     batch.Features,
			Instructions: batch.Instructions,
		})
		selector.AddFuture(f, func(f workflow.Future) {
			if err := f.Get(ctx, &features); err != nil {
				fail(err)
			}
		})
	}

	changesIn := notes.ChangesInput{
		Fixes:        batch.Fixes,
		Performance:  batch.Performance,
		Maintenance:  batch.Maintenance,
		Instructions: batch.Instructions,
	}
	if !changesIn.Empty() {
		pending++
		f := workflow.ExecuteActivity(ctx, a.EnrichChanges, changesIn)
		selector.AddFuture(f, func(f workflow.Future) {
			if err := f.Get(ctx, &changes); err != nil {
				fail(err)
			}
		})
	}

	for i := 0; i < pending; i++ {
		selector.Select(ctx)
	}
	if firstErr != nil {
		return nil, types.EnrichedChanges{}, firstErr
	}
	return features, changes, nil
}

// gateOutcome is the result of the quality gate. Exactly one of its
// implementations is produced per run.
type gateOutcome interface {
	gateOutcome()
}

type refinedDraft struct {
	markdown string
	version  string
}

type passedThrough struct {
	draft types.Draft
}

func (refinedDraft) gateOutcome()  {}
func (passedThrough) gateOutcome() {}

// gate forwards a complete draft unchanged and sends an incomplete one
// through a single refinement pass.
func gate(ctx workflow.Context, in notes.DraftInput, draft types.Draft) (gateOutcome, error) {
	if draft.IsComplete {
		workflow.GetLogger(ctx).Info("draft is complete, passing through", "version", draft.Version)
		return passedThrough{draft: draft}, nil
	}

	var a *activities.Activities
	var refined string
	err := workflow.ExecuteActivity(ctx, a.RefineDraft, activities.RefineInput{
		Context: in,
		Draft:   draft,
	}).Get(ctx, &refined)
	if err != nil {
		return nil, err
	}
	return refinedDraft{markdown: refined, version: draft.Version}, nil
}

// uniqueCommits keeps the first occurrence of each sha.
func uniqueCommits(commits []types.RawCommit) []types.RawCommit {
	if len(commits) == 0 {
		return commits
	}
	seen := make(map[string]struct{}, len(commits))
	out := make([]types.RawCommit, 0, len(commits))
	for _, c := range commits {
		if _, ok := seen[c.SHA]; ok {
			continue
		}
		seen[c.SHA] = struct{}{}
		out = append(out, c)
	}
	return out
}

func finalize(ctx workflow.Context, outcome gateOutcome) (*types.FinalResult, error) {
	switch o := outcome.(type) {
	case refinedDraft:
		return &types.FinalResult{Result: o.markdown, Version: o.version, Refined: true}, nil
	case passedThrough:
		return &types.FinalResult{Result: o.draft.Markdown, Version: o.draft.Version, Refined: false}, nil
	default:
		msg := fmt.Sprintf("quality gate produced unexpected outcome %T", outcome)
		workflow.GetLogger(ctx).Error(msg)
		return nil, temporal.NewNonRetryableApplicationError(msg, activities.ErrTypeUnreachableGate, nil)
	}
}
