package notes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/pkg/types"
)

const stageClassify = "classify_commits"

type classifyResponse struct {
	Commits []classifyItem `json:"commits"`
}

type classifyItem struct {
	SHA      string `json:"sha" description:"sha of the input commit, copied exactly"`
	Type     string `json:"type" enum:"feat,fix,perf,chore,docs,refactor,test"`
	Message  string `json:"message" description:"commit subject without any conventional-commit type prefix"`
	Breaking bool   `json:"breaking" description:"true only when the commit explicitly declares a breaking change"`
}

var (
	// type(scope)!: subject, for the commit types in common use.
	conventionalPrefix = regexp.MustCompile(`(?i)^(feat|fix|perf|chore|docs|refactor|test|build|ci|style|revert)(\([^)]*\))?!?:\s*`)
	breakingBang       = regexp.MustCompile(`(?i)^(feat|fix|perf|chore|docs|refactor|test|build|ci|style|revert)(\([^)]*\))?!:`)
)

// Classify assigns a type and breaking flag to each raw commit. The result has
// one entry per input, in input order.
func (w *AIWriter) Classify(ctx context.Context, commits []types.RawCommit) ([]types.ClassifiedCommit, error) {
	if len(commits) == 0 {
		return []types.ClassifiedCommit{}, nil
	}
	if err := distinctInputs(stageClassify, rawSHAs(commits)); err != nil {
		return nil, err
	}

	var resp classifyResponse
	err := w.client.GenerateObject(ctx, llm.Request{
		Name:   stageClassify,
		System: classifySystemPrompt,
		User:   buildClassifyPrompt(commits),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("classify commits: %w", err)
	}

	classified, err := matchClassified(commits, resp.Commits)
	if err != nil {
		return nil, err
	}

	w.logger.Info("classified commits",
		zap.Int("commits", len(classified)),
	)

	return classified, nil
}

// matchClassified checks that the response covers every input commit exactly
// once and rebuilds it in input order.
func matchClassified(commits []types.RawCommit, items []classifyItem) ([]types.ClassifiedCommit, error) {
	inputs := make(map[string]struct{}, len(commits))
	for _, c := range commits {
		inputs[c.SHA] = struct{}{}
	}

	bySHA := make(map[string]classifyItem, len(items))
	for _, item := range items {
		if _, ok := inputs[item.SHA]; !ok {
			return nil, contractErr(stageClassify, ReasonUnknownCommit, "sha %q was not in the input", item.SHA)
		}
		if _, dup := bySHA[item.SHA]; dup {
			return nil, contractErr(stageClassify, ReasonDuplicateCommit, "sha %q classified twice", item.SHA)
		}
		bySHA[item.SHA] = item
	}

	out := make([]types.ClassifiedCommit, 0, len(commits))
	for _, c := range commits {
		item, ok := bySHA[c.SHA]
		if !ok {
			return nil, contractErr(stageClassify, ReasonMissingCommit, "sha %q was not classified", c.SHA)
		}

		typ := types.CommitType(strings.ToLower(strings.TrimSpace(item.Type)))
		if !typ.Valid() {
			return nil, contractErr(stageClassify, ReasonInvalidType, "sha %q has type %q", c.SHA, item.Type)
		}

		message := cleanMessage(item.Message)
		if message == "" {
			message = cleanMessage(subject(c.RawMessage))
		}

		classified := types.ClassifiedCommit{
			SHA:      c.SHA,
			Type:     typ,
			Message:  message,
			Breaking: item.Breaking || explicitlyBreaking(c.RawMessage),
		}
		if c.PullRequest != nil {
			classified.PullRequest = c.PullRequest.Number
		}
		out = append(out, classified)
	}

	return out, nil
}

func rawSHAs(commits []types.RawCommit) []string {
	shas := make([]string, len(commits))
	for i, c := range commits {
		shas[i] = c.SHA
	}
	return shas
}

// cleanMessage strips a conventional-commit prefix the model may have kept.
func cleanMessage(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(conventionalPrefix.ReplaceAllString(s, ""))
}

func subject(message string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return first
}

// explicitlyBreaking detects the conventional-commit markers for a breaking change.
func explicitlyBreaking(message string) bool {
	if breakingBang.MatchString(strings.TrimSpace(message)) {
		return true
	}
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "BREAKING CHANGE:") || strings.HasPrefix(line, "BREAKING-CHANGE:") {
			return true
		}
	}
	return false
}
