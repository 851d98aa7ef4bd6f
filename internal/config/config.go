// Package config loads leader and worker settings from defaults, an optional
// YAML file and environment variables, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clintrovert/relnotes/internal/activities"
)

// EnvConfigPath names the environment variable holding the YAML file path.
const EnvConfigPath = "RELNOTES_CONFIG"

// Config is the full runtime configuration
type Config struct {
	Temporal     TemporalConfig   `yaml:"temporal"`
	OpenAI       OpenAIConfig     `yaml:"openai"`
	Repository   RepositoryConfig `yaml:"repository"`
	GitHub       GitHubConfig     `yaml:"github"`
	Jira         JiraConfig       `yaml:"jira"`
	Server       ServerConfig     `yaml:"server"`
	StageTimeout time.Duration    `yaml:"stage_timeout"`
}

type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`
}

// RepositoryConfig locates the git repository and decides where the current
// version comes from.
type RepositoryConfig struct {
	Path           string `yaml:"path"`
	CurrentVersion string `yaml:"current_version"`
	VersionSource  string `yaml:"version_source"`
}

type GitHubConfig struct {
	Token      string `yaml:"token"`
	Repository string `yaml:"repository"`
}

type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

type ServerConfig struct {
	RESTPort string `yaml:"rest_port"`
	GRPCPort string `yaml:"grpc_port"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Temporal: TemporalConfig{
			Address:   "localhost:7233",
			Namespace: "default",
			TaskQueue: "release-notes",
		},
		OpenAI: OpenAIConfig{
			Timeout:     90 * time.Second,
			Temperature: 0.3,
		},
		Repository: RepositoryConfig{
			Path:          ".",
			VersionSource: activities.VersionSourceFixed,
		},
		Server: ServerConfig{
			RESTPort: "8080",
			GRPCPort: "9090",
		},
		StageTimeout: 2 * time.Minute,
	}
}

// Load builds the configuration. getenv is usually os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv(EnvConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto cfg. Keys absent from data keep their value.
func Parse(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"TEMPORAL_ADDRESS":   &c.Temporal.Address,
		"TEMPORAL_NAMESPACE": &c.Temporal.Namespace,
		"TASK_QUEUE":         &c.Temporal.TaskQueue,
		"OPENAI_API_KEY":     &c.OpenAI.APIKey,
		"OPENAI_MODEL":       &c.OpenAI.Model,
		"OPENAI_BASE_URL":    &c.OpenAI.BaseURL,
		"REPO_PATH":          &c.Repository.Path,
		"CURRENT_VERSION":    &c.Repository.CurrentVersion,
		"VERSION_SOURCE":     &c.Repository.VersionSource,
		"GITHUB_TOKEN":       &c.GitHub.Token,
		"GITHUB_REPOSITORY":  &c.GitHub.Repository,
		"JIRA_BASE_URL":      &c.Jira.BaseURL,
		"JIRA_USERNAME":      &c.Jira.Username,
		"JIRA_TOKEN":         &c.Jira.Token,
		"REST_PORT":          &c.Server.RESTPort,
		"GRPC_PORT":          &c.Server.GRPCPort,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"STAGE_TIMEOUT":  &c.StageTimeout,
		"OPENAI_TIMEOUT": &c.OpenAI.Timeout,
	}
	for key, dst := range durations {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}

	if v := getenv("OPENAI_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("config: OPENAI_TEMPERATURE: %w", err)
		}
		c.OpenAI.Temperature = float32(t)
	}
	return nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, errors.New("task queue is required"))
	}
	if c.StageTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stage timeout must be positive, got %s", c.StageTimeout))
	}
	if c.OpenAI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("openai timeout must be positive, got %s", c.OpenAI.Timeout))
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("openai temperature must be between 0 and 2, got %g", c.OpenAI.Temperature))
	}
	switch c.Repository.VersionSource {
	case activities.VersionSourceFixed, activities.VersionSourceTags:
	default:
		errs = append(errs, fmt.Errorf("version source must be fixed or tags, got %q", c.Repository.VersionSource))
	}
	if c.GitHub.Repository != "" {
		owner, repo, ok := strings.Cut(c.GitHub.Repository, "/")
		if !ok || owner == "" || repo == "" {
			errs = append(errs, fmt.Errorf("github repository must be owner/repo, got %q", c.GitHub.Repository))
		}
	}
	if set := countSet(c.Jira.BaseURL, c.Jira.Username, c.Jira.Token); set != 0 && set != 3 {
		errs = append(errs, errors.New("jira base URL, username and token must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateWorker additionally checks settings only the worker needs.
func (c Config) ValidateWorker() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("config: OPENAI_API_KEY is required")
	}
	return nil
}

// GitHubEnabled reports whether pull request linking is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHub.Repository != ""
}

// JiraEnabled reports whether issue linking is configured.
func (c Config) JiraEnabled() bool {
	return c.Jira.BaseURL != ""
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
