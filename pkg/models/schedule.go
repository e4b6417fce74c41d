package models

import "time"

// ResumeReason tells why an enrollment has a pending resume.
type ResumeReason string

const (
	ResumeReasonWait  ResumeReason = "wait"
	ResumeReasonRetry ResumeReason = "retry"
)

// ResumeSchedule is the durable record of when a paused or failed enrollment
// should be advanced again. There is at most one per enrollment.
type ResumeSchedule struct {
	EnrollmentID string       `json:"enrollment_id"`
	WorkflowID   string       `json:"workflow_id"`
	NodeID       string       `json:"node_id"`
	Reason       ResumeReason `json:"reason"`
	Attempt      int          `json:"attempt"`
	DueAt        time.Time    `json:"due_at"`
	CreatedAt    time.Time    `json:"created_at"`
}

// IsDue reports whether the schedule should fire at now.
func (s *ResumeSchedule) IsDue(now time.Time) bool {
	return !s.DueAt.After(now)
}
