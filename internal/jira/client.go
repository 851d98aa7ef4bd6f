package jira

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/pkg/types"
)

// issueKey matches Jira issue keys such as PLAT-123.
var issueKey = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)

// Client wraps Jira API client functionality
type Client struct {
	client *jira.Client
	logger *zap.Logger

	// summaries caches looked up issues; nil entries mark unknown keys.
	summaries map[string]*types.IssueRef
	mu        sync.RWMutex
}

// NewClient creates a new Jira client
func NewClient(baseURL, username, apiToken string, logger *zap.Logger) (*Client, error) {
	tp := jira.BasicAuthTransport{
		Username: username,
		Password: apiToken,
	}

	client, err := jira.NewClient(tp.Client(), baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &Client{
		client:    client,
		logger:    logger,
		summaries: make(map[string]*types.IssueRef),
	}, nil
}

// IssueKeys returns the distinct issue keys mentioned in message, in order of
// first appearance.
func IssueKeys(message string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, key := range issueKey.FindAllString(message, -1) {
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// GetIssue retrieves the summary of an issue. It returns nil when the issue
// does not exist.
func (c *Client) GetIssue(ctx context.Context, key string) (*types.IssueRef, error) {
	c.mu.RLock()
	ref, ok := c.summaries[key]
	c.mu.RUnlock()
	if ok {
		return ref, nil
	}

	issue, resp, err := c.client.Issue.GetWithContext(ctx, key, &jira.GetQueryOptions{Fields: "summary"})
	switch {
	case err == nil:
		ref = &types.IssueRef{Key: issue.Key}
		if issue.Fields != nil {
			ref.Summary = issue.Fields.Summary
		}
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		ref = nil
	default:
		return nil, fmt.Errorf("failed to get issue %s: %w", key, err)
	}

	c.mu.Lock()
	c.summaries[key] = ref
	c.mu.Unlock()
	return ref, nil
}

// Annotate attaches the issues referenced by the commit message. The commit is
// left untouched when any lookup fails.
func (c *Client) Annotate(ctx context.Context, commit *types.RawCommit) error {
	var issues []types.IssueRef
	for _, key := range IssueKeys(commit.RawMessage) {
		ref, err := c.GetIssue(ctx, key)
		if err != nil {
			return err
		}
		if ref == nil {
			c.logger.Debug("issue not found", zap.String("issue", key), zap.String("sha", commit.SHA))
			continue
		}
		issues = append(issues, *ref)
	}
	commit.Issues = append(commit.Issues, issues...)
	return nil
}
