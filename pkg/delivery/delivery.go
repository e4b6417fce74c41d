// Package delivery defines the outbound channel capabilities the engine calls.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/models"
)

// ErrRejected is wrapped by every ProviderError.
var ErrRejected = errors.New("delivery rejected by provider")

// Result describes an accepted delivery.
type Result struct {
	Provider          string `json:"provider"`
	ProviderMessageID string `json:"provider_message_id"`
	Status            string `json:"status,omitempty"`
}

type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

type SMSMessage struct {
	To   string
	Body string
}

type EmailSender interface {
	SendEmail(ctx context.Context, message EmailMessage) (*Result, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, message SMSMessage) (*Result, error)
}

// HandoffRequest asks the agent service to write and send a reply to a lead.
type HandoffRequest struct {
	AgentID      string         `json:"agent_id"`
	Notes        string         `json:"notes,omitempty"`
	Channel      models.Channel `json:"channel"`
	To           string         `json:"to"`
	Lead         models.Lead    `json:"lead"`
	WorkflowID   string         `json:"workflow_id"`
	EnrollmentID string         `json:"enrollment_id"`
}

type HandoffResult struct {
	AgentID        string         `json:"agent_id"`
	Channel        models.Channel `json:"channel"`
	SuggestedReply string         `json:"suggested_reply,omitempty"`
	Delivery       *Result        `json:"delivery,omitempty"`
}

type AgentHandoff interface {
	Handoff(ctx context.Context, request HandoffRequest) (*HandoffResult, error)
}

// ProviderError is a non-success answer from a provider API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s responded with status %d: %s", e.Provider, e.StatusCode, e.Body)
	}

	return fmt.Sprintf("%s responded with status %d", e.Provider, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return ErrRejected
}
