package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/clintrovert/relnotes/internal/changelog"
	"github.com/clintrovert/relnotes/internal/notes"
	"github.com/clintrovert/relnotes/pkg/types"
)

// DefaultHeartbeatInterval is how often long-running collaborator calls
// report liveness.
const DefaultHeartbeatInterval = 5 * time.Second

// CommitSource supplies raw commits and release tags
type CommitSource interface {
	Collect(ctx context.Context, fromRef, toRef string) ([]types.RawCommit, error)
	Tags() ([]string, error)
}

// Activities holds the release-note activities registered with the worker
type Activities struct {
	writer            notes.Writer
	commits           CommitSource
	heartbeatInterval time.Duration
}

// Option configures Activities. Exported methods of Activities must all be
// activities.
type Option func(*Activities)

// WithHeartbeatInterval overrides the heartbeat interval.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(a *Activities) {
		if d > 0 {
			a.heartbeatInterval = d
		}
	}
}

// New creates the activity set. commits may be nil when runs always carry
// their own commit list.
func New(writer notes.Writer, commits CommitSource, opts ...Option) *Activities {
	a := &Activities{
		writer:            writer,
		commits:           commits,
		heartbeatInterval: DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CollectCommits reads the commit range from the repository.
func (a *Activities) CollectCommits(ctx context.Context, in CollectInput) (*CollectResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("collecting commits", "from_ref", in.FromRef, "to_ref", in.ToRef)

	if a.commits == nil {
		return nil, collectionError(errNoRepository)
	}

	commits, err := a.commits.Collect(ctx, in.FromRef, in.ToRef)
	if err != nil {
		return nil, collectionError(err)
	}

	result := &CollectResult{Commits: commits}
	if in.VersionSource == VersionSourceTags {
		tags, err := a.commits.Tags()
		if err != nil {
			return nil, collectionError(err)
		}
		result.CurrentVersion = changelog.LatestVersion(tags)
		logger.Info("resolved current version from tags", "version", result.CurrentVersion, "tags", len(tags))
	}

	return result, nil
}

// ClassifyCommits assigns a type and breaking flag to every commit.
func (a *Activities) ClassifyCommits(ctx context.Context, commits []types.RawCommit) ([]types.ClassifiedCommit, error) {
	activity.GetLogger(ctx).Info("classifying commits", "count", len(commits))

	var out []types.ClassifiedCommit
	err := a.withHeartbeat(ctx, "classify", func(ctx context.Context) error {
		var err error
		out, err = a.writer.Classify(ctx, commits)
		return err
	})
	if err != nil {
		return nil, stageError("classify", err)
	}
	return out, nil
}

// EnrichFeatures rewrites the feature bucket for readers.
func (a *Activities) EnrichFeatures(ctx context.Context, in EnrichFeaturesInput) ([]types.EnrichedCommit, error) {
	activity.GetLogger(ctx).Info("enriching features", "count", len(in.Features))

	var out []types.EnrichedCommit
	err := a.withHeartbeat(ctx, "enrich_features", func(ctx context.Context) error {
		var err error
		out, err = a.writer.EnrichFeatures(ctx, in.Features, in.Instructions)
		return err
	})
	if err != nil {
		return nil, stageError("enrich features", err)
	}
	return out, nil
}

// EnrichChanges rewrites the fix, performance and maintenance buckets.
func (a *Activities) EnrichChanges(ctx context.Context, in notes.ChangesInput) (*types.EnrichedChanges, error) {
	activity.GetLogger(ctx).Info("enriching changes",
		"fixes", len(in.Fixes),
		"performance", len(in.Performance),
		"maintenance", len(in.Maintenance),
	)

	var out types.EnrichedChanges
	err := a.withHeartbeat(ctx, "enrich_changes", func(ctx context.Context) error {
		var err error
		out, err = a.writer.EnrichChanges(ctx, in)
		return err
	})
	if err != nil {
		return nil, stageError("enrich changes", err)
	}
	return &out, nil
}

// DraftReleaseNotes writes the Markdown document and its self-assessment.
func (a *Activities) DraftReleaseNotes(ctx context.Context, in notes.DraftInput) (*types.Draft, error) {
	activity.GetLogger(ctx).Info("drafting release notes", "version", in.Version, "date", in.Date)

	var out *types.Draft
	err := a.withHeartbeat(ctx, "draft", func(ctx context.Context) error {
		var err error
		out, err = a.writer.Draft(ctx, in)
		return err
	})
	if err != nil {
		return nil, stageError("draft", err)
	}
	return out, nil
}

// RefineDraft rewrites an incomplete draft against its suggestions.
func (a *Activities) RefineDraft(ctx context.Context, in RefineInput) (string, error) {
	activity.GetLogger(ctx).Info("refining draft",
		"version", in.Draft.Version,
		"suggestions", len(in.Draft.Suggestions),
	)

	var out string
	err := a.withHeartbeat(ctx, "refine", func(ctx context.Context) error {
		var err error
		out, err = a.writer.Refine(ctx, in.Context, in.Draft)
		return err
	})
	if err != nil {
		return "", stageError("refine", err)
	}
	return out, nil
}
