package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowTrigger starts executions of one Cloud Workflow.
type WorkflowTrigger struct {
	client *executions.Client
	parent string
}

// NewWorkflowTrigger creates an executions client for projects/<p>/locations/<l>/workflows/<id>.
func NewWorkflowTrigger(ctx context.Context, projectID, location, workflowID string) (*WorkflowTrigger, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowTrigger: projectID, location and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowTrigger{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// Trigger starts one execution with payload marshalled as its JSON argument
// and returns the execution name.
func (w *WorkflowTrigger) Trigger(ctx context.Context, payload any) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	exec, err := w.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent: w.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return exec.GetName(), nil
}

func (w *WorkflowTrigger) Close() error {
	return w.client.Close()
}
