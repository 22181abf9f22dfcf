package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
)

// Dial connects to the workflow service. An empty host means the SDK
// default, localhost:7233.
func Dial(host, namespace string, logger *slog.Logger) (client.Client, error) {
	opts := client.Options{HostPort: host, Namespace: namespace}
	if logger != nil {
		opts.Logger = tlog.NewStructuredLogger(logger)
	}
	c, err := client.Dial(opts)
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}

// Register adds the assessment workflow and its activities to w.
func Register(w worker.Registry) {
	w.RegisterWorkflow(AssessmentWorkflow)
	w.RegisterActivity(StructuralActivity)
	w.RegisterActivity(LexicalActivity)
	w.RegisterActivity(QualityActivity)
	w.RegisterActivity(FinalizeActivity)
}

// StartWorker creates and starts a Temporal worker.
func StartWorker(c client.Client, taskQueue string) (worker.Worker, error) {
	w := worker.New(c, taskQueue, worker.Options{})
	Register(w)

	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}
	return w, nil
}

// WorkflowIDPrefix prefixes the workflow ID of every assessment.
const WorkflowIDPrefix = "assessment-"

// StartAssessment submits an assessment workflow. A missing AssessmentID
// is generated so the workflow ID and the stored assessment agree.
func StartAssessment(ctx context.Context, c client.Client, taskQueue string, in AssessmentInput) (client.WorkflowRun, error) {
	if in.AssessmentID == "" {
		in.AssessmentID = uuid.NewString()
	}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowIDPrefix + in.AssessmentID,
		TaskQueue: taskQueue,
	}, AssessmentWorkflow, in)
	if err != nil {
		return nil, fmt.Errorf("start assessment workflow: %w", err)
	}
	return run, nil
}
