// Package dryrun implements every delivery capability by logging instead of sending.
package dryrun

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/google/uuid"
)

const ProviderName = "dryrun"

// Sender records what would have been delivered.
type Sender struct {
	logger *slog.Logger

	mu       sync.Mutex
	emails   []delivery.EmailMessage
	sms      []delivery.SMSMessage
	handoffs []delivery.HandoffRequest
}

func New(logger *slog.Logger) *Sender {
	return &Sender{logger: logger.With("module", "dryrun_delivery")}
}

func (s *Sender) SendEmail(ctx context.Context, message delivery.EmailMessage) (*delivery.Result, error) {
	s.mu.Lock()
	s.emails = append(s.emails, message)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Email not sent (dry run)", "to", message.To, "subject", message.Subject)

	return s.result(), nil
}

func (s *Sender) SendSMS(ctx context.Context, message delivery.SMSMessage) (*delivery.Result, error) {
	s.mu.Lock()
	s.sms = append(s.sms, message)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "SMS not sent (dry run)", "to", message.To)

	return s.result(), nil
}

func (s *Sender) Handoff(ctx context.Context, request delivery.HandoffRequest) (*delivery.HandoffResult, error) {
	s.mu.Lock()
	s.handoffs = append(s.handoffs, request)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Agent handoff not performed (dry run)",
		"agent_id", request.AgentID, "channel", request.Channel, "to", request.To)

	return &delivery.HandoffResult{
		AgentID:  request.AgentID,
		Channel:  request.Channel,
		Delivery: s.result(),
	}, nil
}

// Emails returns a copy of the recorded email messages.
func (s *Sender) Emails() []delivery.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]delivery.EmailMessage(nil), s.emails...)
}

func (s *Sender) SMS() []delivery.SMSMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]delivery.SMSMessage(nil), s.sms...)
}

func (s *Sender) Handoffs() []delivery.HandoffRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]delivery.HandoffRequest(nil), s.handoffs...)
}

func (s *Sender) result() *delivery.Result {
	return &delivery.Result{
		Provider:          ProviderName,
		ProviderMessageID: uuid.NewString(),
		Status:            "recorded",
	}
}
