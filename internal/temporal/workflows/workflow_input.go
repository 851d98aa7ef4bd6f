package workflows

import (
	"time"

	"github.com/clintrovert/relnotes/pkg/types"
)

// WorkflowInput contains the input for the release notes workflow
type WorkflowInput struct {
	// CommitLog is the caller's request: an optional commit range on the first
	// line followed by free-text instructions.
	CommitLog string
	// Commits, when set, are used instead of collecting from the repository.
	Commits []types.RawCommit
	// CurrentVersion enables real semver increments. It takes precedence over
	// VersionSource.
	CurrentVersion string
	VersionSource  string
	StageTimeout   time.Duration
}
