// Package wait provides the wait node, which suspends an enrollment for a fixed delay.
package wait

import (
	"context"
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

// WaitNode never fails. On first execution it pauses the run and records
// when the wait is due; when replayed it reports whether that time has passed.
type WaitNode struct {
	id     string
	config models.WaitConfig
}

func NewWaitNode(id string, config models.WaitConfig) *WaitNode {
	return &WaitNode{id: id, config: config}
}

func (n *WaitNode) ID() string {
	return n.id
}

func (n *WaitNode) Type() models.NodeType {
	return models.NodeTypeWait
}

func (n *WaitNode) Execute(_ context.Context, executionCtx *models.ExecutionContext) (map[string]any, error) {
	output := map[string]any{
		"amount": n.config.Amount,
		"unit":   string(n.config.Unit),
	}

	now := executionCtx.Now
	if now.IsZero() {
		now = time.Now()
	}

	if replay := executionCtx.Replay; replay != nil && replay.NodeID == n.id {
		due, ok := replay.DueAt()
		if !ok {
			due = replay.FinishedAt.Add(n.config.Delay())
		}

		output["due_at"] = formatDue(due)

		if executionCtx.Options.SkipWait || !now.Before(due) {
			output["waited"] = true

			return output, nil
		}

		output["paused"] = true

		return output, nil
	}

	if !executionCtx.Options.PauseAtWait {
		output["waited"] = false
		output["preview"] = true

		return output, nil
	}

	output["paused"] = true
	output["due_at"] = formatDue(now.Add(n.config.Delay()))

	return output, nil
}

func formatDue(due time.Time) string {
	return due.UTC().Format(time.RFC3339Nano)
}
