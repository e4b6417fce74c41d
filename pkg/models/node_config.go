package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidNodeConfig is wrapped by every ConfigError.
var ErrInvalidNodeConfig = errors.New("invalid node configuration")

// ConfigError reports a missing or malformed field in a node's data.
type ConfigError struct {
	NodeID  string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("node %s: %s: %s", e.NodeID, e.Field, e.Message)
	}

	return fmt.Sprintf("node %s: %s", e.NodeID, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidNodeConfig
}

// NodeConfig is the typed form of a node's data, one variant per node type.
type NodeConfig interface {
	NodeType() NodeType
}

type TriggerConfig struct {
	Type NodeType `json:"-"`
}

func (c TriggerConfig) NodeType() NodeType { return c.Type }

type SendEmailConfig struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (SendEmailConfig) NodeType() NodeType { return NodeTypeSendEmail }

type SendSMSConfig struct {
	To      string `json:"to,omitempty"`
	Message string `json:"message"`
}

func (SendSMSConfig) NodeType() NodeType { return NodeTypeSendSMS }

type WaitUnit string

const (
	WaitUnitMinutes WaitUnit = "minutes"
	WaitUnitHours   WaitUnit = "hours"
	WaitUnitDays    WaitUnit = "days"
)

// Duration returns the length of one unit, or zero for an unknown unit.
func (u WaitUnit) Duration() time.Duration {
	switch u {
	case WaitUnitMinutes:
		return time.Minute
	case WaitUnitHours:
		return time.Hour
	case WaitUnitDays:
		return 24 * time.Hour
	default:
		return 0
	}
}

// MaxWait is the longest wait a definition may hold.
const MaxWait = 365 * 24 * time.Hour

type WaitConfig struct {
	Amount int      `json:"amount"`
	Unit   WaitUnit `json:"unit"`
}

func (WaitConfig) NodeType() NodeType { return NodeTypeWait }

// Delay is the full wait length. ParseNodeConfig bounds it by MaxWait.
func (c WaitConfig) Delay() time.Duration {
	return time.Duration(c.Amount) * c.Unit.Duration()
}

type AgentHandoffConfig struct {
	AgentID string `json:"agentId"`
	Notes   string `json:"notes,omitempty"`
}

func (AgentHandoffConfig) NodeType() NodeType { return NodeTypeAgentHandoff }

// ParseNodeConfig decodes and validates the data of a node according to its type.
func ParseNodeConfig(node Node) (NodeConfig, error) {
	data := node.Data
	if data == nil {
		data = map[string]any{}
	}

	switch node.Type {
	case NodeTypeManualTrigger, NodeTypeVoicemailTrigger:
		return TriggerConfig{Type: node.Type}, nil

	case NodeTypeSendEmail:
		to, err := optionalString(node.ID, data, "to")
		if err != nil {
			return nil, err
		}

		subject, err := requiredString(node.ID, data, "subject", "email node requires a subject")
		if err != nil {
			return nil, err
		}

		body, err := requiredString(node.ID, data, "body", "email node requires a body")
		if err != nil {
			return nil, err
		}

		return SendEmailConfig{To: to, Subject: subject, Body: body}, nil

	case NodeTypeSendSMS:
		to, err := optionalString(node.ID, data, "to")
		if err != nil {
			return nil, err
		}

		message, err := requiredString(node.ID, data, "message", "sms node requires a message")
		if err != nil {
			return nil, err
		}

		return SendSMSConfig{To: to, Message: message}, nil

	case NodeTypeWait:
		amount, err := positiveInt(node.ID, data, "amount")
		if err != nil {
			return nil, err
		}

		unit, _ := data["unit"].(string)

		waitUnit := WaitUnit(strings.TrimSpace(unit))
		if waitUnit.Duration() == 0 {
			return nil, &ConfigError{
				NodeID:  node.ID,
				Field:   "unit",
				Message: "wait unit must be one of minutes, hours, days",
			}
		}

		if time.Duration(amount) > MaxWait/waitUnit.Duration() {
			return nil, &ConfigError{
				NodeID:  node.ID,
				Field:   "amount",
				Message: "wait cannot be longer than 365 days",
			}
		}

		return WaitConfig{Amount: amount, Unit: waitUnit}, nil

	case NodeTypeAgentHandoff:
		agentID, err := requiredString(node.ID, data, "agentId", "agent handoff node requires an agentId")
		if err != nil {
			return nil, err
		}

		notes, err := optionalString(node.ID, data, "notes")
		if err != nil {
			return nil, err
		}

		return AgentHandoffConfig{AgentID: agentID, Notes: notes}, nil

	default:
		return nil, &ConfigError{
			NodeID:  node.ID,
			Field:   "type",
			Message: fmt.Sprintf("unknown node type %q", node.Type),
		}
	}
}

func requiredString(nodeID string, data map[string]any, field, message string) (string, error) {
	value, ok := data[field].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", &ConfigError{NodeID: nodeID, Field: field, Message: message}
	}

	return value, nil
}

func optionalString(nodeID string, data map[string]any, field string) (string, error) {
	raw, present := data[field]
	if !present || raw == nil {
		return "", nil
	}

	value, ok := raw.(string)
	if !ok {
		return "", &ConfigError{NodeID: nodeID, Field: field, Message: "must be a string"}
	}

	return strings.TrimSpace(value), nil
}

// positiveInt accepts JSON numbers (float64), YAML integers and numeric strings.
func positiveInt(nodeID string, data map[string]any, field string) (int, error) {
	invalid := &ConfigError{NodeID: nodeID, Field: field, Message: "wait amount must be a positive integer"}

	var value float64

	switch v := data[field].(type) {
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case uint64:
		value = float64(v)
	case float64:
		value = v
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, invalid
		}

		value = float64(parsed)
	default:
		return 0, invalid
	}

	if value <= 0 || value != math.Trunc(value) || value > math.MaxInt32 {
		return 0, invalid
	}

	return int(value), nil
}
