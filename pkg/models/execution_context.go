package models

import "time"

// ExecutionOptions control a single runner invocation.
type ExecutionOptions struct {
	IgnoreSendWindow bool
	// PauseAtWait stops the run at wait nodes. Disabled only for previews.
	PauseAtWait bool
	// SkipWait treats a replayed wait as already elapsed.
	SkipWait  bool
	Overrides Overrides
}

// ExecutionContext is the state a node sees while it executes.
type ExecutionContext struct {
	WorkflowID   string
	WorkflowName string
	EnrollmentID string
	Lead         Lead
	Options      ExecutionOptions
	// LastChannel is the channel of the latest successful delivery, seeded
	// from the enrollment history and updated during the run.
	LastChannel Channel
	// Replay is the paused step of the node being re-executed, if any.
	Replay *WorkflowExecutionStep
	Now    time.Time
}

// TemplateData exposes lead and run fields to message templates.
func (c *ExecutionContext) TemplateData() map[string]any {
	lead := map[string]any{
		"name":  c.Lead.Name,
		"email": c.Lead.Email,
		"phone": c.Lead.Phone,
	}

	return map[string]any{
		"lead":    lead,
		"contact": lead,
		"workflow": map[string]any{
			"id":   c.WorkflowID,
			"name": c.WorkflowName,
		},
		"enrollment": map[string]any{
			"id": c.EnrollmentID,
		},
	}
}
