package notes_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/internal/mock"
	"github.com/clintrovert/relnotes/internal/notes"
	"github.com/clintrovert/relnotes/pkg/types"
)

func draftInput() notes.DraftInput {
	return notes.DraftInput{
		Version: "v2.1.0",
		Date:    "March 2025",
		Features: []types.EnrichedCommit{
			{SHA: "a1", Type: types.CommitFeat, Title: "OAuth Login", Description: "Sign in with OAuth."},
		},
		Fixes: []types.EnrichedCommit{
			{SHA: "b2", Type: types.CommitFix, Title: "Token Refresh", Description: "Tokens refresh on time."},
		},
		Performance: []types.EnrichedCommit{},
		Maintenance: []types.EnrichedCommit{},
	}
}

const validMarkdown = "## v2.1.0 — March 2025\n\n" +
	"### Features\n\n- **OAuth Login**: Sign in with OAuth.\n\n" +
	"### Bug Fixes\n\n- **Token Refresh**: Tokens refresh on time.\n"

func TestAIWriter_Draft(t *testing.T) {
	t.Parallel()

	client := respondWith(map[string]any{
		"markdown":    "```markdown\n" + validMarkdown + "```",
		"version":     "2.1.0",
		"isComplete":  false,
		"suggestions": []string{"Mention the migration guide", "  "},
	})
	writer := notes.NewAIWriter(client, zap.NewNop())

	draft, err := writer.Draft(context.Background(), draftInput())

	require.NoError(t, err)
	assert.Equal(t, "v2.1.0", draft.Version)
	assert.False(t, draft.IsComplete)
	assert.Equal(t, []string{"Mention the migration guide"}, draft.Suggestions)
	assert.Equal(t, strings.TrimSpace(validMarkdown), draft.Markdown)
	assert.Equal(t, []string{"draft_release_notes"}, client.Calls())
}

func TestAIWriter_Draft_ContractViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		resp   map[string]any
		reason notes.ContractReason
	}{
		{
			name:   "complete with suggestions",
			resp:   map[string]any{"markdown": validMarkdown, "version": "v2.1.0", "isComplete": true, "suggestions": []string{"more"}},
			reason: notes.ReasonSuggestions,
		},
		{
			name:   "incomplete without suggestions",
			resp:   map[string]any{"markdown": validMarkdown, "version": "v2.1.0", "isComplete": false, "suggestions": []string{}},
			reason: notes.ReasonSuggestions,
		},
		{
			name:   "empty version",
			resp:   map[string]any{"markdown": validMarkdown, "version": "", "isComplete": true, "suggestions": []string{}},
			reason: notes.ReasonEmptyField,
		},
		{
			name:   "different version",
			resp:   map[string]any{"markdown": validMarkdown, "version": "v3.0.0", "isComplete": true, "suggestions": []string{}},
			reason: notes.ReasonVersionMismatch,
		},
		{
			name: "wrong heading",
			resp: map[string]any{
				"markdown":    strings.Replace(validMarkdown, "March 2025", "April 2025", 1),
				"version":     "v2.1.0",
				"isComplete":  true,
				"suggestions": []string{},
			},
			reason: notes.ReasonHeading,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			writer := notes.NewAIWriter(respondWith(tc.resp), zap.NewNop())

			_, err := writer.Draft(context.Background(), draftInput())

			var ce *notes.ContractError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.reason, ce.Reason)
			assert.Equal(t, "draft_release_notes", ce.Stage)
		})
	}
}

func TestAIWriter_Refine(t *testing.T) {
	t.Parallel()

	refined := validMarkdown + "\nSee the migration guide.\n"
	client := &mock.LLMClient{
		GenerateTextFn: func(ctx context.Context, req llm.Request) (string, error) {
			assert.Contains(t, req.User, "Mention the migration guide")
			return "```\n" + refined + "```", nil
		},
	}
	writer := notes.NewAIWriter(client, zap.NewNop())
	draft := types.Draft{
		Markdown:    validMarkdown,
		Version:     "v2.1.0",
		Suggestions: []string{"Mention the migration guide"},
	}

	got, err := writer.Refine(context.Background(), draftInput(), draft)

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(refined), got)
	assert.Equal(t, []string{"refine_release_notes"}, client.Calls())
}

func TestAIWriter_Refine_RejectsLostHeading(t *testing.T) {
	t.Parallel()

	client := &mock.LLMClient{
		GenerateTextFn: func(ctx context.Context, req llm.Request) (string, error) {
			return "# Release notes\n\nEverything is better now.", nil
		},
	}
	writer := notes.NewAIWriter(client, zap.NewNop())

	_, err := writer.Refine(context.Background(), draftInput(), types.Draft{Version: "v2.1.0", Suggestions: []string{"x"}})

	var ce *notes.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, notes.ReasonHeading, ce.Reason)
}

func TestAIWriter_Refine_RejectsEmptyText(t *testing.T) {
	t.Parallel()

	client := &mock.LLMClient{
		GenerateTextFn: func(ctx context.Context, req llm.Request) (string, error) {
			return "  \n", nil
		},
	}
	writer := notes.NewAIWriter(client, zap.NewNop())

	_, err := writer.Refine(context.Background(), draftInput(), types.Draft{Version: "v2.1.0", Suggestions: []string{"x"}})

	var ce *notes.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, notes.ReasonEmptyField, ce.Reason)
}
