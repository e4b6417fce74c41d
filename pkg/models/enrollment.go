package models

import (
	"strings"
	"time"
)

// EnrollmentSource records how a lead entered a workflow.
type EnrollmentSource string

const (
	EnrollmentSourceManualTest EnrollmentSource = "manual-test"
	EnrollmentSourceLive       EnrollmentSource = "live"
)

// EnrollmentStatus is the outcome of the latest runner invocation.
type EnrollmentStatus string

const (
	EnrollmentStatusInProgress EnrollmentStatus = "in-progress"
	EnrollmentStatusSuccess    EnrollmentStatus = "success"
	EnrollmentStatusFailed     EnrollmentStatus = "failed"
)

// Channel is an outbound delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

type Lead struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Reachable reports whether the lead has at least one contact point.
func (l Lead) Reachable() bool {
	return strings.TrimSpace(l.Email) != "" || strings.TrimSpace(l.Phone) != ""
}

// Overrides replace recipient and channel resolution for every node of an enrollment.
type Overrides struct {
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Channel Channel `json:"channel,omitempty"`
}

// EnrollmentOptions are fixed at enrollment time. Preview records wait steps
// without pausing and is only honored for manual-test enrollments.
type EnrollmentOptions struct {
	IgnoreSendWindow bool      `json:"ignore_send_window"`
	Preview          bool      `json:"preview,omitempty"`
	Overrides        Overrides `json:"overrides"`
}

// Enrollment is the durable execution record of one lead in one workflow.
type Enrollment struct {
	ID          string                   `json:"id"`
	WorkflowID  string                   `json:"workflow_id"`
	Lead        Lead                     `json:"lead"`
	Source      EnrollmentSource         `json:"source"`
	Status      EnrollmentStatus         `json:"status"`
	Options     EnrollmentOptions        `json:"options"`
	Steps       []*WorkflowExecutionStep `json:"steps"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
}

// LastStep returns the most recent step or nil.
func (e *Enrollment) LastStep() *WorkflowExecutionStep {
	if len(e.Steps) == 0 {
		return nil
	}

	return e.Steps[len(e.Steps)-1]
}

// LastChannel returns the channel of the most recent successful delivery.
func (e *Enrollment) LastChannel() Channel {
	return LastDeliveryChannel(e.Steps)
}

// LastDeliveryChannel scans steps backwards for the latest successful,
// non-skipped step that delivered on a channel.
func LastDeliveryChannel(steps []*WorkflowExecutionStep) Channel {
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if step.Status != StepStatusSuccess || step.IsSkipped() {
			continue
		}

		if channel, ok := step.Output["channel"].(string); ok && Channel(channel).Valid() {
			return Channel(channel)
		}
	}

	return ""
}
