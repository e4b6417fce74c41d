package models

import "time"

type StepStatus string

const (
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
)

// WorkflowExecutionStep is the result of interpreting one node once.
type WorkflowExecutionStep struct {
	NodeID     string         `json:"node_id"`
	NodeType   NodeType       `json:"node_type"`
	Status     StepStatus     `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

func (s *WorkflowExecutionStep) IsPaused() bool {
	paused, _ := s.Output["paused"].(bool)

	return paused
}

func (s *WorkflowExecutionStep) IsSkipped() bool {
	skipped, _ := s.Output["skipped"].(bool)

	return skipped
}

// DueAt returns the recorded resume time of a paused wait step.
func (s *WorkflowExecutionStep) DueAt() (time.Time, bool) {
	switch v := s.Output["due_at"].(type) {
	case time.Time:
		return v, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}

		return parsed, true
	default:
		return time.Time{}, false
	}
}
