// Package events defines the lifecycle notifications of enrollments and workflows.
package events

import (
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "leadflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Enrollment lifecycle events.
	EnrollmentCreatedEvent   EventType = "enrollment.created"
	EnrollmentAdvancedEvent  EventType = "enrollment.advanced"
	EnrollmentPausedEvent    EventType = "enrollment.paused"
	EnrollmentCompletedEvent EventType = "enrollment.completed"
	EnrollmentFailedEvent    EventType = "enrollment.failed"
	EnrollmentDeletedEvent   EventType = "enrollment.deleted"

	// Workflow lifecycle events.
	WorkflowPublishedEvent EventType = "workflow.published"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type EnrollmentCreated struct {
	BaseEvent

	EnrollmentID string                  `json:"enrollment_id"`
	Source       models.EnrollmentSource `json:"source"`
}

func (e EnrollmentCreated) GetType() EventType {
	return EnrollmentCreatedEvent
}

// EnrollmentAdvanced is emitted after every invocation that appended steps.
type EnrollmentAdvanced struct {
	BaseEvent

	EnrollmentID string   `json:"enrollment_id"`
	NodeIDs      []string `json:"node_ids"`
}

func (e EnrollmentAdvanced) GetType() EventType {
	return EnrollmentAdvancedEvent
}

type EnrollmentPaused struct {
	BaseEvent

	EnrollmentID string              `json:"enrollment_id"`
	NodeID       string              `json:"node_id"`
	Reason       models.ResumeReason `json:"reason"`
	DueAt        time.Time           `json:"due_at"`
}

func (e EnrollmentPaused) GetType() EventType {
	return EnrollmentPausedEvent
}

type EnrollmentCompleted struct {
	BaseEvent

	EnrollmentID string    `json:"enrollment_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (e EnrollmentCompleted) GetType() EventType {
	return EnrollmentCompletedEvent
}

type EnrollmentFailed struct {
	BaseEvent

	EnrollmentID string `json:"enrollment_id"`
	NodeID       string `json:"node_id"`
	Error        string `json:"error"`
}

func (e EnrollmentFailed) GetType() EventType {
	return EnrollmentFailedEvent
}

type EnrollmentDeleted struct {
	BaseEvent

	EnrollmentID string `json:"enrollment_id"`
}

func (e EnrollmentDeleted) GetType() EventType {
	return EnrollmentDeletedEvent
}

type WorkflowPublished struct {
	BaseEvent

	WorkflowName string    `json:"workflow_name"`
	PublishedAt  time.Time `json:"published_at"`
}

func (e WorkflowPublished) GetType() EventType {
	return WorkflowPublishedEvent
}

// New returns an empty event of the given type, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case EnrollmentCreatedEvent:
		return &EnrollmentCreated{}, true
	case EnrollmentAdvancedEvent:
		return &EnrollmentAdvanced{}, true
	case EnrollmentPausedEvent:
		return &EnrollmentPaused{}, true
	case EnrollmentCompletedEvent:
		return &EnrollmentCompleted{}, true
	case EnrollmentFailedEvent:
		return &EnrollmentFailed{}, true
	case EnrollmentDeletedEvent:
		return &EnrollmentDeleted{}, true
	case WorkflowPublishedEvent:
		return &WorkflowPublished{}, true
	default:
		return nil, false
	}
}

// Types lists every event type in publication order of an enrollment's life.
func Types() []EventType {
	return []EventType{
		EnrollmentCreatedEvent,
		EnrollmentAdvancedEvent,
		EnrollmentPausedEvent,
		EnrollmentCompletedEvent,
		EnrollmentFailedEvent,
		EnrollmentDeletedEvent,
		WorkflowPublishedEvent,
	}
}
