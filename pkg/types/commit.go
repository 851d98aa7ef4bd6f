package types

// CommitType is the conventional-commit category assigned by the classifier
type CommitType string

const (
	CommitFeat     CommitType = "feat"
	CommitFix      CommitType = "fix"
	CommitPerf     CommitType = "perf"
	CommitChore    CommitType = "chore"
	CommitDocs     CommitType = "docs"
	CommitRefactor CommitType = "refactor"
	CommitTest     CommitType = "test"
)

// CommitTypes lists the taxonomy in a stable order
var CommitTypes = []CommitType{
	CommitFeat,
	CommitFix,
	CommitPerf,
	CommitChore,
	CommitDocs,
	CommitRefactor,
	CommitTest,
}

// Valid reports whether t belongs to the taxonomy
func (t CommitType) Valid() bool {
	for _, known := range CommitTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PullRequestRef links a commit to the pull request that merged it
type PullRequestRef struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// IssueRef links a commit to a tracker issue mentioned in its message
type IssueRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// RawCommit is a commit as collected from the repository
type RawCommit struct {
	SHA         string          `json:"sha"`
	RawMessage  string          `json:"rawMessage"`
	PullRequest *PullRequestRef `json:"pullRequest,omitempty"`
	Issues      []IssueRef      `json:"issues,omitempty"`
}

// ClassifiedCommit is a raw commit with its inferred type and cleaned message
type ClassifiedCommit struct {
	SHA         string     `json:"sha"`
	Type        CommitType `json:"type"`
	Message     string     `json:"message"`
	Breaking    bool       `json:"breaking"`
	PullRequest int        `json:"pullRequest,omitempty"`
}

// EnrichedCommit is the human-readable form of a classified commit
type EnrichedCommit struct {
	SHA         string     `json:"sha"`
	Type        CommitType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Breaking    bool       `json:"breaking"`
	PullRequest int        `json:"pullRequest,omitempty"`
}
