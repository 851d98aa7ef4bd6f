package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/clintrovert/relnotes/pkg/types"
)

// Client wraps the GitHub API for one repository
type Client struct {
	apiClient *github.Client
	logger    *zap.Logger
	owner     string
	repo      string
}

// NewClient creates a new GitHub client for "owner/repo". An empty token
// makes unauthenticated requests.
func NewClient(accessToken, repository string, logger *zap.Logger) (*Client, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("repository %q is not in owner/repo form", repository)
	}

	apiClient := github.NewClient(nil)
	if accessToken != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: accessToken},
		)
		apiClient = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}

	return &Client{
		apiClient: apiClient,
		logger:    logger,
		owner:     owner,
		repo:      repo,
	}, nil
}

// WithBaseURL points the client at a different API root, such as GitHub
// Enterprise.
func (c *Client) WithBaseURL(baseURL string) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c.apiClient.BaseURL = u
	return c, nil
}

// PullRequestForCommit returns the first pull request that contains sha, or
// nil when the commit did not land through one.
func (c *Client) PullRequestForCommit(ctx context.Context, sha string) (*types.PullRequestRef, error) {
	prs, _, err := c.apiClient.PullRequests.ListPullRequestsWithCommit(ctx, c.owner, c.repo, sha, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s: %w", sha, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}

	pr := prs[0]
	return &types.PullRequestRef{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
	}, nil
}

// Annotate attaches the pull request that introduced the commit.
func (c *Client) Annotate(ctx context.Context, commit *types.RawCommit) error {
	pr, err := c.PullRequestForCommit(ctx, commit.SHA)
	if err != nil {
		return err
	}
	if pr == nil {
		return nil
	}
	commit.PullRequest = pr

	c.logger.Debug("linked pull request",
		zap.String("sha", commit.SHA),
		zap.Int("pr_number", pr.Number),
		zap.String("pr_url", pr.URL),
	)
	return nil
}
