package protocol

import (
	"log/slog"

	"github.com/dukex/leadflow/pkg/delivery"
)

// Dependencies are the collaborators node factories are built with.
type Dependencies struct {
	Logger *slog.Logger
	Email  delivery.EmailSender
	SMS    delivery.SMSSender
	Agent  delivery.AgentHandoff
}
