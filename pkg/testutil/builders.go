// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"fmt"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/google/uuid"
)

// TriggerNode creates a manual trigger node.
func TriggerNode(id string) models.Node {
	return models.Node{ID: id, Type: models.NodeTypeManualTrigger}
}

// EmailNode creates a send-email node addressed to the lead.
func EmailNode(id, subject, body string) models.Node {
	return models.Node{
		ID:   id,
		Type: models.NodeTypeSendEmail,
		Data: map[string]any{"subject": subject, "body": body},
	}
}

// SMSNode creates a send-sms node addressed to the lead.
func SMSNode(id, message string) models.Node {
	return models.Node{
		ID:   id,
		Type: models.NodeTypeSendSMS,
		Data: map[string]any{"message": message},
	}
}

// WaitNode creates a wait node. JSON decoding yields float64 amounts, so
// the builder does the same.
func WaitNode(id string, amount int, unit models.WaitUnit) models.Node {
	return models.Node{
		ID:   id,
		Type: models.NodeTypeWait,
		Data: map[string]any{"amount": float64(amount), "unit": string(unit)},
	}
}

// HandoffNode creates an agent-handoff node.
func HandoffNode(id, agentID string) models.Node {
	return models.Node{
		ID:   id,
		Type: models.NodeTypeAgentHandoff,
		Data: map[string]any{"agentId": agentID},
	}
}

// LinearDefinition connects nodes in the order given.
func LinearDefinition(nodes ...models.Node) models.Definition {
	edges := make([]models.Edge, 0, len(nodes))
	for i := 1; i < len(nodes); i++ {
		edges = append(edges, models.Edge{
			ID:     fmt.Sprintf("e%d", i),
			Source: nodes[i-1].ID,
			Target: nodes[i].ID,
		})
	}

	return models.Definition{Nodes: nodes, Edges: edges}
}

// CallbackDefinition is the trigger, email, wait 1 day, sms flow used across tests.
func CallbackDefinition() models.Definition {
	return LinearDefinition(
		TriggerNode("t"),
		EmailNode("e", "Hi {{lead.name}}", "Thanks for calling"),
		WaitNode("w", 1, models.WaitUnitDays),
		SMSNode("s", "Still interested, {{lead.name}}?"),
	)
}

// CreateTestWorkflow creates a draft workflow with default values that can be overridden.
func CreateTestWorkflow(overrides ...func(*models.Workflow)) *models.Workflow {
	now := time.Now().UTC()

	workflow := &models.Workflow{
		ID:          uuid.NewString(),
		Name:        "Missed Call Follow-up",
		Description: "Follow up with leads that left a voicemail",
		Status:      models.WorkflowStatusDraft,
		Definition:  CallbackDefinition(),
		Owner:       "sales",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithPublished marks the workflow as published.
func WithPublished() func(*models.Workflow) {
	return func(w *models.Workflow) {
		now := time.Now().UTC()
		w.Status = models.WorkflowStatusPublished
		w.PublishedAt = &now
	}
}

// WithDefinition sets the workflow definition.
func WithDefinition(definition models.Definition) func(*models.Workflow) {
	return func(w *models.Workflow) {
		w.Definition = definition
	}
}

// TestLead returns a lead reachable on both channels.
func TestLead() models.Lead {
	return models.Lead{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+15550100"}
}

// CreateTestEnrollment creates an in-progress live enrollment for workflowID.
func CreateTestEnrollment(workflowID string, overrides ...func(*models.Enrollment)) *models.Enrollment {
	now := time.Now().UTC()

	enrollment := &models.Enrollment{
		ID:         uuid.NewString(),
		WorkflowID: workflowID,
		Lead:       TestLead(),
		Source:     models.EnrollmentSourceLive,
		Status:     models.EnrollmentStatusInProgress,
		Steps:      []*models.WorkflowExecutionStep{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, override := range overrides {
		override(enrollment)
	}

	return enrollment
}

// SuccessStep builds a successful step for nodeID.
func SuccessStep(nodeID string, nodeType models.NodeType, output map[string]any) *models.WorkflowExecutionStep {
	now := time.Now().UTC()

	return &models.WorkflowExecutionStep{
		NodeID:     nodeID,
		NodeType:   nodeType,
		Status:     models.StepStatusSuccess,
		Output:     output,
		StartedAt:  now,
		FinishedAt: now,
	}
}

// PausedWaitStep builds the step a wait node records when it pauses.
func PausedWaitStep(nodeID string, due time.Time) *models.WorkflowExecutionStep {
	return SuccessStep(nodeID, models.NodeTypeWait, map[string]any{
		"paused": true,
		"due_at": due.UTC().Format(time.RFC3339Nano),
	})
}
