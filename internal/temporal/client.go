package temporal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/temporal/workflows"
	"github.com/clintrovert/relnotes/pkg/types"
)

// WorkflowIDPrefix prefixes every release-notes run id.
const WorkflowIDPrefix = "release-notes-"

// cancelTimeout bounds the cancellation request sent after a caller goes away.
const cancelTimeout = 5 * time.Second

// ErrRunNotFound is returned for run ids the cluster does not know.
var ErrRunNotFound = errors.New("run not found")

// RunDefaults are applied to every run started by the client.
type RunDefaults struct {
	StageTimeout   time.Duration
	CurrentVersion string
	VersionSource  string
}

// RunStatus describes a release-notes run.
type RunStatus struct {
	RunID  string             `json:"runId"`
	Status string             `json:"status"`
	Result *types.FinalResult `json:"result,omitempty"`
}

// Client wraps Temporal client functionality
type Client struct {
	temporalClient client.Client
	logger         *zap.Logger
	taskQueue      string
	defaults       RunDefaults
}

// NewClient creates a new Temporal client
func NewClient(address, namespace, taskQueue string, defaults RunDefaults, logger *zap.Logger) (*Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  address,
		Namespace: namespace,
		Logger:    NewZapAdapter(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}

	return NewClientFrom(c, taskQueue, defaults, logger), nil
}

// NewClientFrom wraps an existing SDK client.
func NewClientFrom(c client.Client, taskQueue string, defaults RunDefaults, logger *zap.Logger) *Client {
	return &Client{
		temporalClient: c,
		logger:         logger,
		taskQueue:      taskQueue,
		defaults:       defaults,
	}
}

// StartReleaseNotes starts a release notes run and returns its id without
// waiting for it to finish.
func (c *Client) StartReleaseNotes(ctx context.Context, commitLog string) (string, error) {
	we, err := c.start(ctx, commitLog)
	if err != nil {
		return "", err
	}
	return we.GetID(), nil
}

// RunReleaseNotes starts a run and waits for its result. If ctx ends first,
// the run is cancelled.
func (c *Client) RunReleaseNotes(ctx context.Context, commitLog string) (*types.FinalResult, error) {
	we, err := c.start(ctx, commitLog)
	if err != nil {
		return nil, err
	}

	var result types.FinalResult
	if err := we.Get(ctx, &result); err != nil {
		if ctx.Err() != nil {
			c.cancelAbandoned(we.GetID())
			return nil, fmt.Errorf("release notes run %s abandoned: %w", we.GetID(), ctx.Err())
		}
		return nil, fmt.Errorf("release notes run %s failed: %w", we.GetID(), err)
	}
	return &result, nil
}

func (c *Client) start(ctx context.Context, commitLog string) (client.WorkflowRun, error) {
	workflowID := WorkflowIDPrefix + uuid.NewString()

	workflowOptions := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: c.taskQueue,
	}

	workflowInput := workflows.WorkflowInput{
		CommitLog:      commitLog,
		CurrentVersion: c.defaults.CurrentVersion,
		VersionSource:  c.defaults.VersionSource,
		StageTimeout:   c.defaults.StageTimeout,
	}

	we, err := c.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.ReleaseNotesWorkflow, workflowInput)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	c.logger.Info("started workflow",
		zap.String("workflow_id", we.GetID()),
		zap.String("run_id", we.GetRunID()),
	)
	return we, nil
}

func (c *Client) cancelAbandoned(workflowID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()

	if err := c.temporalClient.CancelWorkflow(ctx, workflowID, ""); err != nil {
		c.logger.Warn("failed to cancel abandoned workflow",
			zap.String("workflow_id", workflowID),
			zap.Error(err),
		)
		return
	}
	c.logger.Info("cancelled abandoned workflow", zap.String("workflow_id", workflowID))
}

// DescribeRun reports the status of a run, with its result once completed.
func (c *Client) DescribeRun(ctx context.Context, workflowID string) (*RunStatus, error) {
	resp, err := c.temporalClient.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return nil, notFound(err)
	}

	status := resp.GetWorkflowExecutionInfo().GetStatus()
	out := &RunStatus{
		RunID:  workflowID,
		Status: statusName(status),
	}

	if status == enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		var result types.FinalResult
		if err := c.temporalClient.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
			return nil, fmt.Errorf("failed to read result of %s: %w", workflowID, err)
		}
		out.Result = &result
	}
	return out, nil
}

// CancelRun requests cancellation of a run.
func (c *Client) CancelRun(ctx context.Context, workflowID string) error {
	if err := c.temporalClient.CancelWorkflow(ctx, workflowID, ""); err != nil {
		return notFound(err)
	}
	c.logger.Info("cancelled workflow", zap.String("workflow_id", workflowID))
	return nil
}

// CheckHealth verifies the Temporal frontend is reachable.
func (c *Client) CheckHealth(ctx context.Context) error {
	_, err := c.temporalClient.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

// Close closes the Temporal client
func (c *Client) Close() {
	c.temporalClient.Close()
}

func notFound(err error) error {
	var nf *serviceerror.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, nf.Message)
	}
	return err
}

var statusNames = map[enumspb.WorkflowExecutionStatus]string{
	enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:          "running",
	enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:        "completed",
	enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:           "failed",
	enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:         "canceled",
	enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:       "terminated",
	enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW: "continued_as_new",
	enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:        "timed_out",
}

func statusName(status enumspb.WorkflowExecutionStatus) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "unknown"
}
