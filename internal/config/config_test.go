package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clintrovert/relnotes/internal/activities"
	"github.com/clintrovert/relnotes/internal/config"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(env(nil))

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "release-notes", cfg.Temporal.TaskQueue)
	assert.Equal(t, activities.VersionSourceFixed, cfg.Repository.VersionSource)
	assert.False(t, cfg.GitHubEnabled())
	assert.False(t, cfg.JiraEnabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "relnotes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
temporal:
  address: temporal:7233
  task_queue: notes
repository:
  path: /src/app
  version_source: tags
github:
  repository: acme/widgets
openai:
  temperature: 0.5
stage_timeout: 45s
`), 0o600))

	cfg, err := config.Load(env(map[string]string{
		config.EnvConfigPath: path,
		"TASK_QUEUE":         "notes-override",
		"STAGE_TIMEOUT":      "3m",
		"OPENAI_API_KEY":     "sk-test",
		"OPENAI_TEMPERATURE": "0.1",
	}))

	require.NoError(t, err)
	assert.Equal(t, "temporal:7233", cfg.Temporal.Address)
	assert.Equal(t, "default", cfg.Temporal.Namespace)
	assert.Equal(t, "notes-override", cfg.Temporal.TaskQueue)
	assert.Equal(t, "/src/app", cfg.Repository.Path)
	assert.Equal(t, "tags", cfg.Repository.VersionSource)
	assert.Equal(t, 3*time.Minute, cfg.StageTimeout)
	assert.InDelta(t, 0.1, cfg.OpenAI.Temperature, 0.0001)
	assert.True(t, cfg.GitHubEnabled())
	assert.NoError(t, cfg.ValidateWorker())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "missing file", vars: map[string]string{config.EnvConfigPath: "/does/not/exist.yaml"}},
		{name: "bad duration", vars: map[string]string{"STAGE_TIMEOUT": "soon"}},
		{name: "bad version source", vars: map[string]string{"VERSION_SOURCE": "changelog"}},
		{name: "bad temperature", vars: map[string]string{"OPENAI_TEMPERATURE": "warm"}},
		{name: "temperature out of range", vars: map[string]string{"OPENAI_TEMPERATURE": "3"}},
		{name: "bad repository", vars: map[string]string{"GITHUB_REPOSITORY": "widgets"}},
		{name: "partial jira", vars: map[string]string{"JIRA_BASE_URL": "https://acme.atlassian.net"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(env(tc.vars))

			assert.Error(t, err)
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	err := config.Parse([]byte("temporal:\n  adress: typo:7233\n"), &cfg)

	assert.Error(t, err)
}

func TestValidateWorker_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	assert.Error(t, config.Default().ValidateWorker())
}
