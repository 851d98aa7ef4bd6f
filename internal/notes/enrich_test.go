package notes_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/internal/mock"
	"github.com/clintrovert/relnotes/internal/notes"
	"github.com/clintrovert/relnotes/pkg/types"
)

func entry(sha, title string) map[string]any {
	return map[string]any{"sha": sha, "title": title, "description": "Users can now " + title + "."}
}

func TestAIWriter_EnrichFeatures(t *testing.T) {
	t.Parallel()

	features := []types.ClassifiedCommit{
		{SHA: "a1", Type: types.CommitFeat, Message: "add oauth", PullRequest: 7},
		{SHA: "b2", Type: types.CommitFeat, Message: "add sso", Breaking: true},
	}
	client := respondWith(map[string]any{
		"entries": []map[string]any{entry("b2", "Single Sign On"), entry("a1", "feat: OAuth Login")},
	})
	writer := notes.NewAIWriter(client, zap.NewNop())

	got, err := writer.EnrichFeatures(context.Background(), features, "focus on OAuth")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.EnrichedCommit{
		SHA: "a1", Type: types.CommitFeat, Title: "OAuth Login",
		Description: "Users can now feat: OAuth Login.", PullRequest: 7,
	}, got[0])
	assert.Equal(t, "b2", got[1].SHA)
	assert.True(t, got[1].Breaking)

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].User, "focus on OAuth")
}

func TestAIWriter_EnrichFeatures_EmptyInputSkipsCall(t *testing.T) {
	t.Parallel()

	client := &mock.LLMClient{}
	writer := notes.NewAIWriter(client, zap.NewNop())

	got, err := writer.EnrichFeatures(context.Background(), []types.ClassifiedCommit{}, "")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, client.Calls())
}

func TestAIWriter_EnrichFeatures_MissingEntry(t *testing.T) {
	t.Parallel()

	features := []types.ClassifiedCommit{{SHA: "a1", Type: types.CommitFeat}, {SHA: "b2", Type: types.CommitFeat}}
	writer := notes.NewAIWriter(respondWith(map[string]any{
		"entries": []map[string]any{entry("a1", "One")},
	}), zap.NewNop())

	_, err := writer.EnrichFeatures(context.Background(), features, "")

	var ce *notes.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, notes.ReasonMissingCommit, ce.Reason)
}

func TestAIWriter_EnrichFeatures_EmptyTitle(t *testing.T) {
	t.Parallel()

	features := []types.ClassifiedCommit{{SHA: "a1", Type: types.CommitFeat}}
	writer := notes.NewAIWriter(respondWith(map[string]any{
		"entries": []map[string]any{{"sha": "a1", "title": "  ", "description": "d"}},
	}), zap.NewNop())

	_, err := writer.EnrichFeatures(context.Background(), features, "")

	var ce *notes.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, notes.ReasonEmptyField, ce.Reason)
}

func TestAIWriter_EnrichChanges_KeepsInputBuckets(t *testing.T) {
	t.Parallel()

	in := notes.ChangesInput{
		Fixes:       []types.ClassifiedCommit{{SHA: "f1", Type: types.CommitFix}, {SHA: "f2", Type: types.CommitFix}},
		Performance: []types.ClassifiedCommit{{SHA: "p1", Type: types.CommitPerf}},
		Maintenance: []types.ClassifiedCommit{{SHA: "m1", Type: types.CommitDocs}, {SHA: "m2", Type: types.CommitTest}},
	}
	// The model files f2 under maintenance and reorders the rest.
	client := respondWith(map[string]any{
		"fixes":       []map[string]any{entry("f1", "Fix One")},
		"performance": []map[string]any{entry("p1", "Faster Startup")},
		"maintenance": []map[string]any{entry("m2", "More Tests"), entry("f2", "Fix Two"), entry("m1", "Better Docs")},
	})
	writer := notes.NewAIWriter(client, zap.NewNop())

	got, err := writer.EnrichChanges(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, enrichedSHAs(got.Fixes))
	assert.Equal(t, []string{"p1"}, enrichedSHAs(got.Performance))
	assert.Equal(t, []string{"m1", "m2"}, enrichedSHAs(got.Maintenance))
	assert.Equal(t, types.CommitTest, got.Maintenance[1].Type)
	assert.Equal(t, []string{"enrich_changes"}, client.Calls())
}

func TestAIWriter_EnrichChanges_UnknownEntry(t *testing.T) {
	t.Parallel()

	in := notes.ChangesInput{Fixes: []types.ClassifiedCommit{{SHA: "f1", Type: types.CommitFix}}}
	writer := notes.NewAIWriter(respondWith(map[string]any{
		"fixes":       []map[string]any{entry("f1", "Fix One"), entry("zz", "Ghost")},
		"performance": []map[string]any{},
		"maintenance": []map[string]any{},
	}), zap.NewNop())

	_, err := writer.EnrichChanges(context.Background(), in)

	var ce *notes.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, notes.ReasonUnknownCommit, ce.Reason)
}

func TestAIWriter_EnrichChanges_RejectsRepeatedInput(t *testing.T) {
	t.Parallel()

	fix := types.ClassifiedCommit{SHA: "a1", Type: types.CommitFix}
	client := respondWith(map[string]any{"fixes": []map[string]any{entry("a1", "Fix One")}})
	writer := notes.NewAIWriter(client, zap.NewNop())

	_, err := writer.EnrichChanges(context.Background(), notes.ChangesInput{Fixes: []types.ClassifiedCommit{fix, fix}})

	var ce *notes.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, notes.ReasonDuplicateInput, ce.Reason)
	assert.Empty(t, client.Calls())
}

func TestAIWriter_EnrichFeatures_KeepsNonTypeLeadWord(t *testing.T) {
	t.Parallel()

	client := respondWith(map[string]any{"entries": []map[string]any{entry("a1", "OAuth: Sign-In Flow")}})
	writer := notes.NewAIWriter(client, zap.NewNop())

	got, err := writer.EnrichFeatures(context.Background(), []types.ClassifiedCommit{{SHA: "a1", Type: types.CommitFeat}}, "")

	require.NoError(t, err)
	assert.Equal(t, "OAuth: Sign-In Flow", got[0].Title)
}

func TestAIWriter_EnrichChanges_EmptyInputSkipsCall(t *testing.T) {
	t.Parallel()

	client := &mock.LLMClient{
		GenerateObjectFn: func(ctx context.Context, req llm.Request, out any) error {
			t.Error("collaborator must not be called")
			return nil
		},
	}
	writer := notes.NewAIWriter(client, zap.NewNop())

	got, err := writer.EnrichChanges(context.Background(), notes.ChangesInput{})

	require.NoError(t, err)
	assert.Empty(t, got.Fixes)
	assert.Empty(t, got.Performance)
	assert.Empty(t, got.Maintenance)
}

func enrichedSHAs(entries []types.EnrichedCommit) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.SHA)
	}
	return out
}
