package web

import (
	"encoding/json"

	"github.com/dukex/leadflow/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Owner       string          `json:"owner"`
	Definition  json.RawMessage `json:"definition,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating an existing workflow.
// All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string         `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string         `json:"description,omitempty"`
	Owner       *string         `json:"owner,omitempty"`
	Definition  json.RawMessage `json:"definition,omitempty"`
}

type LeadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone string `json:"phone" validate:"required_without=Email,omitempty,e164"`
}

type OverridesRequest struct {
	Email   string `json:"email,omitempty"   validate:"omitempty,email"`
	Phone   string `json:"phone,omitempty"   validate:"omitempty,e164"`
	Channel string `json:"channel,omitempty" validate:"omitempty,oneof=email sms"`
}

type EnrollmentOptionsRequest struct {
	IgnoreSendWindow *bool            `json:"ignore_send_window,omitempty"`
	Preview          bool             `json:"preview,omitempty"`
	Overrides        OverridesRequest `json:"overrides"`
}

// EnrollRequest represents the request body for enrolling a lead.
type EnrollRequest struct {
	Lead    LeadRequest              `json:"lead"`
	Source  string                   `json:"source,omitempty" validate:"omitempty,oneof=live manual-test"`
	Options EnrollmentOptionsRequest `json:"options"`
}

// AdvanceRequest represents the optional body of an explicit advance.
type AdvanceRequest struct {
	IgnoreSendWindow bool `json:"ignore_send_window"`
	SkipWait         bool `json:"skip_wait"`
}

// ValidationResponse lists the chain of a valid definition.
type ValidationResponse struct {
	Valid bool     `json:"valid"`
	Chain []string `json:"chain"`
}

type NodeTypeResponse struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

func (r EnrollRequest) toLead() models.Lead {
	return models.Lead{Name: r.Lead.Name, Email: r.Lead.Email, Phone: r.Lead.Phone}
}

func (r EnrollRequest) toOverrides() models.Overrides {
	return models.Overrides{
		Email:   r.Options.Overrides.Email,
		Phone:   r.Options.Overrides.Phone,
		Channel: models.Channel(r.Options.Overrides.Channel),
	}
}
