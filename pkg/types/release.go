package types

// ReleaseRequest is the commit range and free-text instructions parsed from a query
type ReleaseRequest struct {
	FromRef      string `json:"fromRef"`
	ToRef        string `json:"toRef"`
	Instructions string `json:"instructions"`
}

// VersionBump is the semantic version increment implied by a set of commits
type VersionBump string

const (
	BumpMajor VersionBump = "major"
	BumpMinor VersionBump = "minor"
	BumpPatch VersionBump = "patch"
)

// CategorizedBatch partitions classified commits into release-note buckets
type CategorizedBatch struct {
	FromRef          string             `json:"fromRef"`
	ToRef            string             `json:"toRef"`
	Instructions     string             `json:"instructions"`
	Features         []ClassifiedCommit `json:"features"`
	Fixes            []ClassifiedCommit `json:"fixes"`
	Performance      []ClassifiedCommit `json:"performance"`
	Maintenance      []ClassifiedCommit `json:"maintenance"`
	VersionBump      VersionBump        `json:"versionBump"`
	SuggestedVersion string             `json:"suggestedVersion"`
}

// Size returns the number of commits across all buckets
func (b CategorizedBatch) Size() int {
	return len(b.Features) + len(b.Fixes) + len(b.Performance) + len(b.Maintenance)
}

// EnrichedChanges holds the output of the fix/performance/maintenance enrichment branch
type EnrichedChanges struct {
	Fixes       []EnrichedCommit `json:"fixes"`
	Performance []EnrichedCommit `json:"performance"`
	Maintenance []EnrichedCommit `json:"maintenance"`
}

// Draft is the drafter's Markdown document and its self-assessment
type Draft struct {
	Markdown    string   `json:"markdown"`
	Version     string   `json:"version"`
	IsComplete  bool     `json:"isComplete"`
	Suggestions []string `json:"suggestions"`
}

// FinalResult is the payload returned to the caller
type FinalResult struct {
	Result  string `json:"result"`
	Version string `json:"version"`
	Refined bool   `json:"refined"`
}
