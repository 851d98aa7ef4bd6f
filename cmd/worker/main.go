package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/activities"
	"github.com/clintrovert/relnotes/internal/config"
	"github.com/clintrovert/relnotes/internal/github"
	"github.com/clintrovert/relnotes/internal/gitlog"
	"github.com/clintrovert/relnotes/internal/jira"
	"github.com/clintrovert/relnotes/internal/llm"
	"github.com/clintrovert/relnotes/internal/notes"
	"github.com/clintrovert/relnotes/internal/temporal"
	"github.com/clintrovert/relnotes/internal/temporal/workflows"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if err := cfg.ValidateWorker(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporal.NewZapAdapter(logger),
	})
	if err != nil {
		logger.Fatal("failed to create temporal client", zap.Error(err))
	}
	defer c.Close()

	// Annotators attach PR and issue context to collected commits
	var annotators []gitlog.Annotator
	if cfg.GitHubEnabled() {
		githubClient, err := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Repository, logger)
		if err != nil {
			logger.Fatal("failed to create github client", zap.Error(err))
		}
		annotators = append(annotators, githubClient)
	}
	if cfg.JiraEnabled() {
		jiraClient, err := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Username, cfg.Jira.Token, logger)
		if err != nil {
			logger.Fatal("failed to create jira client", zap.Error(err))
		}
		annotators = append(annotators, jiraClient)
	}

	// A missing repository is not fatal: runs may carry their own commits.
	var source activities.CommitSource
	collector, err := gitlog.Open(cfg.Repository.Path, logger, gitlog.WithAnnotators(annotators...))
	if err != nil {
		logger.Warn("commit collection disabled", zap.String("path", cfg.Repository.Path), zap.Error(err))
	} else {
		source = collector
	}

	llmClient := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger,
		llm.WithTimeout(cfg.OpenAI.Timeout),
		llm.WithTemperature(cfg.OpenAI.Temperature),
	)
	writer := notes.NewAIWriter(llmClient, logger)

	// Create worker
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow
	w.RegisterWorkflow(workflows.ReleaseNotesWorkflow)

	// Register activities
	w.RegisterActivity(activities.New(writer, source))

	// Start worker
	logger.Info("starting worker",
		zap.String("task_queue", cfg.Temporal.TaskQueue),
		zap.String("namespace", cfg.Temporal.Namespace),
		zap.String("repository", cfg.Repository.Path),
		zap.Int("annotators", len(annotators)),
	)

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}

	logger.Info("worker stopped")
}
