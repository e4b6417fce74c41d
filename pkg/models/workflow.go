// Package models defines the domain records of the workflow automation engine.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, accepts manual-test enrollments only
	WorkflowStatusPublished WorkflowStatus = "published" // Accepts live enrollments
)

// Workflow is a stored, named workflow definition.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"                  validate:"required,min=3"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"`
	Definition  Definition     `json:"definition"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

func (w *Workflow) IsPublished() bool {
	return w.Status == WorkflowStatusPublished
}
