// Package changelog holds the deterministic stages of release-note generation:
// request parsing, commit categorization and version suggestion.
package changelog

import (
	"regexp"
	"strings"

	"github.com/clintrovert/relnotes/pkg/types"
)

const (
	// DefaultFromRef is used when the request names no commit range
	DefaultFromRef = "HEAD~12"
	// DefaultToRef is used when the request names no commit range
	DefaultToRef = "HEAD"
)

var (
	rangePattern        = regexp.MustCompile(`(?i)commits?\s+([0-9a-f]+)\.\.([0-9a-f]+)`)
	instructionsPattern = regexp.MustCompile(`(?i)^\s*additional instructions:`)
)

// ParseRequest extracts the commit range from the first line of the input and
// treats every following line as free-text instructions. It never fails.
func ParseRequest(input string) types.ReleaseRequest {
	req := types.ReleaseRequest{
		FromRef: DefaultFromRef,
		ToRef:   DefaultToRef,
	}

	lines := strings.Split(input, "\n")
	if m := rangePattern.FindStringSubmatch(lines[0]); m != nil {
		req.FromRef = m[1]
		req.ToRef = m[2]
	}

	if len(lines) > 1 {
		rest := strings.Join(lines[1:], "\n")
		rest = instructionsPattern.ReplaceAllString(strings.TrimSpace(rest), "")
		req.Instructions = strings.TrimSpace(rest)
	}

	return req
}
