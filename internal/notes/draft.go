package notes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/pkg/types"
)

const (
	stageDraft  = "draft_release_notes"
	stageRefine = "refine_release_notes"
)

type draftResponse struct {
	Markdown    string   `json:"markdown" description:"the complete release notes document"`
	Version     string   `json:"version" description:"the release version used in the heading"`
	IsComplete  bool     `json:"isComplete" description:"true when the document needs no further improvement"`
	Suggestions []string `json:"suggestions" description:"specific improvements, empty when isComplete is true"`
}

// Draft merges the enriched entries into one Markdown document and returns
// the drafter's own completeness assessment.
func (w *AIWriter) Draft(ctx context.Context, in DraftInput) (*types.Draft, error) {
	var resp draftResponse
	err := w.client.GenerateObject(ctx, llm.Request{
		Name:   stageDraft,
		System: draftSystemPrompt,
		User:   buildDraftPrompt(in),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("draft release notes: %w", err)
	}

	draft, err := checkDraft(in, resp)
	if err != nil {
		return nil, err
	}

	w.logger.Info("drafted release notes",
		zap.String("version", draft.Version),
		zap.Bool("complete", draft.IsComplete),
		zap.Int("suggestions", len(draft.Suggestions)),
	)
	return draft, nil
}

// Refine rewrites the draft to address its suggestions. It runs at most once
// per release and its output is not re-assessed.
func (w *AIWriter) Refine(ctx context.Context, in DraftInput, draft types.Draft) (string, error) {
	text, err := w.client.GenerateText(ctx, llm.Request{
		Name:   stageRefine,
		System: refineSystemPrompt,
		User:   buildRefinePrompt(in, draft),
	})
	if err != nil {
		return "", fmt.Errorf("refine release notes: %w", err)
	}

	markdown := stripFences(text)
	if markdown == "" {
		return "", contractErr(stageRefine, ReasonEmptyField, "refined document is empty")
	}
	if err := CheckMarkdown(stageRefine, markdown, draft.Version, in); err != nil {
		return "", err
	}

	w.logger.Info("refined release notes",
		zap.String("version", draft.Version),
		zap.Int("suggestions_addressed", len(draft.Suggestions)),
	)
	return markdown, nil
}

func checkDraft(in DraftInput, resp draftResponse) (*types.Draft, error) {
	version := strings.TrimSpace(resp.Version)
	if version == "" {
		return nil, contractErr(stageDraft, ReasonEmptyField, "version is empty")
	}
	if strings.TrimPrefix(version, "v") != strings.TrimPrefix(in.Version, "v") {
		return nil, contractErr(stageDraft, ReasonVersionMismatch, "version is %q, want %q", version, in.Version)
	}
	version = in.Version

	suggestions := make([]string, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	if resp.IsComplete && len(suggestions) > 0 {
		return nil, contractErr(stageDraft, ReasonSuggestions, "complete draft carries %d suggestions", len(suggestions))
	}
	if !resp.IsComplete && len(suggestions) == 0 {
		return nil, contractErr(stageDraft, ReasonSuggestions, "incomplete draft has no suggestions")
	}

	markdown := stripFences(resp.Markdown)
	if err := CheckMarkdown(stageDraft, markdown, version, in); err != nil {
		return nil, err
	}

	return &types.Draft{
		Markdown:    markdown,
		Version:     version,
		IsComplete:  resp.IsComplete,
		Suggestions: suggestions,
	}, nil
}
