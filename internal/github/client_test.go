package github_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/github"
	"github.com/clintrovert/relnotes/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *github.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := github.NewClient("token", "acme/widgets", zap.NewNop())
	require.NoError(t, err)
	client, err = client.WithBaseURL(srv.URL)
	require.NoError(t, err)
	return client
}

func TestNewClient_RejectsBadRepository(t *testing.T) {
	t.Parallel()

	for _, repo := range []string{"", "acme", "acme/", "/widgets"} {
		_, err := github.NewClient("", repo, zap.NewNop())
		assert.Error(t, err, repo)
	}
}

func TestClient_Annotate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/commits/abc123/pulls", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"number": 42, "title": "Add OAuth login", "html_url": "https://github.com/acme/widgets/pull/42"}]`))
	})
	commit := &types.RawCommit{SHA: "abc123", RawMessage: "feat: add OAuth login"}

	err := client.Annotate(context.Background(), commit)

	require.NoError(t, err)
	assert.Equal(t, &types.PullRequestRef{
		Number: 42,
		Title:  "Add OAuth login",
		URL:    "https://github.com/acme/widgets/pull/42",
	}, commit.PullRequest)
}

func TestClient_Annotate_NoPullRequest(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	commit := &types.RawCommit{SHA: "abc123"}

	require.NoError(t, client.Annotate(context.Background(), commit))
	assert.Nil(t, commit.PullRequest)
}

func TestClient_Annotate_APIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	commit := &types.RawCommit{SHA: "abc123"}

	err := client.Annotate(context.Background(), commit)

	require.Error(t, err)
	assert.Nil(t, commit.PullRequest)
}
