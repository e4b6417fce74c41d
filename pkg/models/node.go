package models

// NodeType identifies the behavior of a node in a workflow definition.
type NodeType string

const (
	NodeTypeManualTrigger    NodeType = "manual-trigger"
	NodeTypeVoicemailTrigger NodeType = "voicemail-trigger"
	NodeTypeSendEmail        NodeType = "send-email"
	NodeTypeSendSMS          NodeType = "send-sms"
	NodeTypeWait             NodeType = "wait"
	NodeTypeAgentHandoff     NodeType = "agent-handoff"
)

// NodeTypes lists every node type the engine understands.
var NodeTypes = []NodeType{
	NodeTypeManualTrigger,
	NodeTypeVoicemailTrigger,
	NodeTypeSendEmail,
	NodeTypeSendSMS,
	NodeTypeWait,
	NodeTypeAgentHandoff,
}

func (t NodeType) IsTrigger() bool {
	return t == NodeTypeManualTrigger || t == NodeTypeVoicemailTrigger
}

// RespectsSendWindow reports whether the node performs an outbound action
// that must be held to the workflow's send window.
func (t NodeType) RespectsSendWindow() bool {
	switch t {
	case NodeTypeSendEmail, NodeTypeSendSMS, NodeTypeAgentHandoff:
		return true
	default:
		return false
	}
}

func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Position is the editor placement of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type Node struct {
	ID       string         `json:"id"                 yaml:"id"`
	Type     NodeType       `json:"type"               yaml:"type"`
	Position Position       `json:"position"           yaml:"position"`
	Data     map[string]any `json:"data,omitempty"     yaml:"data,omitempty"`
}

type Edge struct {
	ID     string `json:"id"     yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// SendWindow restricts outbound actions to a daily time range in a timezone.
// AllowedDays uses 0 for Sunday through 6 for Saturday.
type SendWindow struct {
	Enabled     bool   `json:"enabled"               yaml:"enabled"`
	StartTime   string `json:"startTime"             yaml:"startTime"`
	EndTime     string `json:"endTime"               yaml:"endTime"`
	AllowedDays []int  `json:"allowedDays,omitempty" yaml:"allowedDays,omitempty"`
	Timezone    string `json:"timezone,omitempty"    yaml:"timezone,omitempty"`
}

type Settings struct {
	SendWindow *SendWindow `json:"sendWindow,omitempty" yaml:"sendWindow,omitempty"`
}

// Definition is the authored workflow graph.
type Definition struct {
	Nodes    []Node   `json:"nodes"              yaml:"nodes"`
	Edges    []Edge   `json:"edges"              yaml:"edges"`
	Settings Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
}
