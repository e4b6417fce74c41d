// Package nodes holds behavior shared by the node implementations.
package nodes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/template"
)

// ErrRecipientMissing means no usable address or number was found for a delivery.
var ErrRecipientMissing = errors.New("no recipient could be resolved")

// ResolveRecipient picks the destination of a delivery on channel. An
// enrollment override wins, then a literal configured value, then the lead's
// own contact when the configured value is a contact placeholder or absent.
func ResolveRecipient(nodeID string, channel models.Channel, configured string, executionCtx *models.ExecutionContext) (string, error) {
	if override := overrideFor(channel, executionCtx.Options.Overrides); override != "" {
		return override, nil
	}

	configured = strings.TrimSpace(configured)

	switch {
	case configured == "":
		return leadContact(nodeID, channel, executionCtx.Lead)
	case isContactToken(configured):
		return leadContact(nodeID, channel, executionCtx.Lead)
	case template.NeedsTemplating(configured):
		rendered, err := template.RenderWithContext(configured, executionCtx)
		if err != nil {
			return "", fmt.Errorf("failed to render recipient for node %s: %w", nodeID, err)
		}

		if strings.TrimSpace(rendered) == "" {
			return "", fmt.Errorf("%w: %s recipient for node %s rendered empty", ErrRecipientMissing, channel, nodeID)
		}

		return strings.TrimSpace(rendered), nil
	default:
		return configured, nil
	}
}

// LeadContact returns the lead's address for channel, honoring overrides.
func LeadContact(nodeID string, channel models.Channel, executionCtx *models.ExecutionContext) (string, error) {
	if override := overrideFor(channel, executionCtx.Options.Overrides); override != "" {
		return override, nil
	}

	return leadContact(nodeID, channel, executionCtx.Lead)
}

func isContactToken(value string) bool {
	_, ok := template.ContactToken(value)

	return ok
}

func overrideFor(channel models.Channel, overrides models.Overrides) string {
	switch channel {
	case models.ChannelEmail:
		return strings.TrimSpace(overrides.Email)
	case models.ChannelSMS:
		return strings.TrimSpace(overrides.Phone)
	default:
		return ""
	}
}

func leadContact(nodeID string, channel models.Channel, lead models.Lead) (string, error) {
	var contact string

	switch channel {
	case models.ChannelEmail:
		contact = strings.TrimSpace(lead.Email)
	case models.ChannelSMS:
		contact = strings.TrimSpace(lead.Phone)
	}

	if contact == "" {
		return "", fmt.Errorf("%w: lead has no %s contact for node %s", ErrRecipientMissing, channel, nodeID)
	}

	return contact, nil
}
