// Package gitlog sources raw commits for a release range from a local git
// repository and attaches pull request and issue context to them.
package gitlog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clintrovert/relnotes/pkg/types"
)

// DefaultConcurrency bounds how many commits are annotated at once.
const DefaultConcurrency = 4

var relativeToHead = regexp.MustCompile(`^HEAD~(\d+)$`)

// Annotator attaches collection context to a commit. It may only write the
// commit it is handed.
type Annotator interface {
	Annotate(ctx context.Context, commit *types.RawCommit) error
}

// Collector reads commit ranges from a git repository
type Collector struct {
	repo        *git.Repository
	logger      *zap.Logger
	annotators  []Annotator
	concurrency int
}

// Option configures a Collector
type Option func(*Collector)

// WithAnnotators adds annotators that run for every collected commit.
func WithAnnotators(annotators ...Annotator) Option {
	return func(c *Collector) {
		c.annotators = append(c.annotators, annotators...)
	}
}

// WithConcurrency sets how many commits are annotated in parallel.
func WithConcurrency(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewCollector creates a collector over an opened repository
func NewCollector(repo *git.Repository, logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{
		repo:        repo,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open opens the repository containing path and returns a collector for it.
func Open(path string, logger *zap.Logger, opts ...Option) (*Collector, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", path, err)
	}
	return NewCollector(repo, logger, opts...), nil
}

// Collect returns the commits reachable from toRef and newer than fromRef,
// newest first. History is assumed to be linear between the two refs. When
// fromRef has the form HEAD~N and history is shorter than N commits, the walk
// is bounded to N commits instead.
func (c *Collector) Collect(ctx context.Context, fromRef, toRef string) ([]types.RawCommit, error) {
	to, err := c.repo.ResolveRevision(plumbing.Revision(toRef))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", toRef, err)
	}

	var (
		stop  plumbing.Hash
		limit int
	)
	from, err := c.repo.ResolveRevision(plumbing.Revision(fromRef))
	switch {
	case err == nil:
		stop = *from
	case relativeToHead.MatchString(fromRef):
		limit, _ = strconv.Atoi(relativeToHead.FindStringSubmatch(fromRef)[1])
		c.logger.Debug("bounding walk for short history",
			zap.String("from_ref", fromRef),
			zap.Int("limit", limit),
		)
	default:
		return nil, fmt.Errorf("failed to resolve %s: %w", fromRef, err)
	}

	iter, err := c.repo.Log(&git.LogOptions{From: *to})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var commits []types.RawCommit
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if commit.Hash == stop {
			return storer.ErrStop
		}
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		commits = append(commits, types.RawCommit{
			SHA:        commit.Hash.String(),
			RawMessage: strings.TrimSpace(commit.Message),
		})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to walk commits: %w", err)
	}
	if commits == nil {
		commits = []types.RawCommit{}
	}

	if err := c.annotate(ctx, commits); err != nil {
		return nil, err
	}

	c.logger.Info("collected commits",
		zap.String("from_ref", fromRef),
		zap.String("to_ref", toRef),
		zap.Int("count", len(commits)),
	)
	return commits, nil
}

// annotate runs every annotator over every commit. A failing annotator only
// costs that commit its context.
func (c *Collector) annotate(ctx context.Context, commits []types.RawCommit) error {
	if len(c.annotators) == 0 || len(commits) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range commits {
		commit := &commits[i]
		g.Go(func() error {
			for _, a := range c.annotators {
				if err := a.Annotate(gctx, commit); err != nil {
					c.logger.Warn("failed to annotate commit",
						zap.String("sha", commit.SHA),
						zap.Error(err),
					)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("annotation interrupted: %w", err)
	}
	return nil
}

// Tags returns the short names of all tags in the repository.
func (c *Collector) Tags() ([]string, error) {
	iter, err := c.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}
