package mocks

import (
	"context"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of delivery.EmailSender interface.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, message delivery.EmailMessage) (*delivery.Result, error) {
	args := m.Called(ctx, message)

	result, _ := args.Get(0).(*delivery.Result)

	return result, args.Error(1)
}

// MockSMSSender is a mock implementation of delivery.SMSSender interface.
type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, message delivery.SMSMessage) (*delivery.Result, error) {
	args := m.Called(ctx, message)

	result, _ := args.Get(0).(*delivery.Result)

	return result, args.Error(1)
}

// MockAgentHandoff is a mock implementation of delivery.AgentHandoff interface.
type MockAgentHandoff struct {
	mock.Mock
}

func (m *MockAgentHandoff) Handoff(ctx context.Context, request delivery.HandoffRequest) (*delivery.HandoffResult, error) {
	args := m.Called(ctx, request)

	result, _ := args.Get(0).(*delivery.HandoffResult)

	return result, args.Error(1)
}
