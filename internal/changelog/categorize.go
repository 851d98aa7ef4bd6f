package changelog

import (
	"github.com/clintrovert/relnotes/pkg/types"
)

// Categorize partitions classified commits into the four release-note buckets
// and derives the version bump. Every commit lands in exactly one bucket and
// input order is kept within each bucket.
func Categorize(req types.ReleaseRequest, commits []types.ClassifiedCommit, currentVersion string) (types.CategorizedBatch, error) {
	batch := types.CategorizedBatch{
		FromRef:      req.FromRef,
		ToRef:        req.ToRef,
		Instructions: req.Instructions,
		Features:     []types.ClassifiedCommit{},
		Fixes:        []types.ClassifiedCommit{},
		Performance:  []types.ClassifiedCommit{},
		Maintenance:  []types.ClassifiedCommit{},
	}

	for _, c := range commits {
		switch c.Type {
		case types.CommitFeat:
			batch.Features = append(batch.Features, c)
		case types.CommitFix:
			batch.Fixes = append(batch.Fixes, c)
		case types.CommitPerf:
			batch.Performance = append(batch.Performance, c)
		default:
			// chore, docs, refactor, test
			batch.Maintenance = append(batch.Maintenance, c)
		}
	}

	batch.VersionBump = Bump(commits)

	version, err := SuggestVersion(batch.VersionBump, currentVersion)
	if err != nil {
		return types.CategorizedBatch{}, err
	}
	batch.SuggestedVersion = version

	return batch, nil
}

// Bump applies the precedence breaking > feat > everything else.
func Bump(commits []types.ClassifiedCommit) types.VersionBump {
	hasFeature := false
	for _, c := range commits {
		if c.Breaking {
			return types.BumpMajor
		}
		if c.Type == types.CommitFeat {
			hasFeature = true
		}
	}
	if hasFeature {
		return types.BumpMinor
	}
	return types.BumpPatch
}
