package temporal

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	taskqueuepb "go.temporal.io/api/taskqueue/v1"
	workflowservicepb "go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/utils"
)

type Client struct {
	TClient   client.Client
	Namespace string

	// PipelineQueue serves both the pipeline and the single mart refresh workflows.
	PipelineQueue string

	// Workflow IDs
	PipelineWorkflowID string
	RefreshWorkflowID  string
}

type Health struct {
	ConnectionOK  bool                      `json:"connection_ok"`
	PipelineQueue []*taskqueuepb.PollerInfo `json:"pipeline_queue"`
}

func NewClient(ctx context.Context, logger *zap.Logger, queue string) (*Client, error) {
	host := utils.Env("TEMPORAL_HOSTPORT", "localhost:7233")
	ns := utils.Env("TEMPORAL_NAMESPACE", "ordermart")
	loggerWrapper := NewZapAdapter(logger)

	logger.Info("Connecting to Temporal", zap.String("host", host), zap.String("namespace", ns))
	tClient, err := Dial(ctx, host, ns, loggerWrapper)
	if err != nil {
		return nil, err
	}

	if _, err = tClient.CheckHealth(ctx, nil); err != nil {
		return nil, err
	}

	return newClient(tClient, ns, queue), nil
}

func newClient(tClient client.Client, ns, queue string) *Client {
	if queue == "" {
		queue = "pipeline"
	}
	return &Client{
		TClient:            tClient,
		Namespace:          ns,
		PipelineQueue:      queue,
		PipelineWorkflowID: "pipeline:%s",
		RefreshWorkflowID:  "refresh:%s:%s",
	}
}

// Dial connects to Temporal using the provided hostPort and namespace.
func Dial(ctx context.Context, hostPort, namespace string, logger log.Logger) (client.Client, error) {
	return client.DialContext(
		ctx,
		client.Options{
			HostPort:  hostPort,
			Namespace: namespace,
			Logger:    logger,
		},
	)
}

// GetPipelineWorkflowID returns the workflow ID of the run identified by runKey.
func (c *Client) GetPipelineWorkflowID(runKey string) string {
	return fmt.Sprintf(c.PipelineWorkflowID, runKey)
}

// GetRefreshWorkflowID returns the workflow ID of a single mart refresh.
func (c *Client) GetRefreshWorkflowID(view, runKey string) string {
	return fmt.Sprintf(c.RefreshWorkflowID, view, runKey)
}

// RunKey formats t as the run identifier used in workflow IDs.
func RunKey(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// Health returns the health of the Temporal client.
func (c *Client) Health(ctx context.Context) (Health, error) {
	h := Health{ConnectionOK: true}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	svc := c.TClient.WorkflowService()
	if svc != nil {
		if rep, err := svc.DescribeTaskQueue(ctx, &workflowservicepb.DescribeTaskQueueRequest{
			Namespace:     c.Namespace,
			TaskQueue:     &taskqueuepb.TaskQueue{Name: c.PipelineQueue},
			TaskQueueType: enums.TASK_QUEUE_TYPE_WORKFLOW,
		}); err == nil {
			h.PipelineQueue = rep.GetPollers()
		}
	}
	return h, nil
}
