package activities

import (
	"github.com/clintrovert/relnotes/internal/notes"
	"github.com/clintrovert/relnotes/pkg/types"
)

// Version sources understood by CollectCommits.
const (
	VersionSourceFixed = "fixed"
	VersionSourceTags  = "tags"
)

// CollectInput selects the commit range and how the current version is found.
type CollectInput struct {
	FromRef       string
	ToRef         string
	VersionSource string
}

// CollectResult contains the collected commits and, when the version source
// is tags, the latest released version.
type CollectResult struct {
	Commits        []types.RawCommit
	CurrentVersion string
}

// EnrichFeaturesInput contains the feature bucket and the user's instructions.
type EnrichFeaturesInput struct {
	Features     []types.ClassifiedCommit
	Instructions string
}

// RefineInput pairs the drafting context with the draft to improve.
type RefineInput struct {
	Context notes.DraftInput
	Draft   types.Draft
}
