// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/delivery/agent"
	"github.com/dukex/leadflow/pkg/delivery/dryrun"
	"github.com/dukex/leadflow/pkg/delivery/mailgun"
	"github.com/dukex/leadflow/pkg/delivery/twilio"
	"github.com/dukex/leadflow/pkg/protocol"
	"github.com/dukex/leadflow/pkg/registry"
)

// NewDependencies builds the delivery collaborators for the configured mode.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (protocol.Dependencies, error) {
	deps := protocol.Dependencies{Logger: logger}

	if cfg.Delivery.Mode == config.DeliveryModeDryRun {
		sender := dryrun.New(logger)
		deps.Email, deps.SMS, deps.Agent = sender, sender, sender

		return deps, nil
	}

	email, err := mailgun.NewClient(cfg.Mailgun, nil)
	if err != nil {
		return deps, fmt.Errorf("failed to create email sender: %w", err)
	}

	sms, err := twilio.NewClient(cfg.Twilio, nil)
	if err != nil {
		return deps, fmt.Errorf("failed to create SMS sender: %w", err)
	}

	deps.Email, deps.SMS = email, sms

	if cfg.Agent.URL == "" {
		logger.Warn("Agent handoff URL not configured, handoffs will be logged only")

		deps.Agent = dryrun.New(logger)

		return deps, nil
	}

	handoff, err := agent.NewClient(cfg.Agent, nil, email, sms)
	if err != nil {
		return deps, fmt.Errorf("failed to create agent handoff: %w", err)
	}

	deps.Agent = handoff

	return deps, nil
}

func NewRegistry(log *slog.Logger, deps protocol.Dependencies) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes(deps)

	return reg
}
