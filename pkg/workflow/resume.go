package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/models"
)

// ErrHistoryMismatch means the step history names a node the chain does not contain.
var ErrHistoryMismatch = errors.New("step history does not match workflow definition")

// ResumePoint is where the next runner invocation starts.
type ResumePoint struct {
	Index int
	// Replay is the paused step being re-executed at Index, if any.
	Replay *models.WorkflowExecutionStep
	// Completed is set when no node is left to run.
	Completed bool
}

// ResumeIndex derives the resume point from the most recent step: a failed
// step is retried, a paused wait is replayed, anything else continues with
// the following node.
func ResumeIndex(chain *Chain, steps []*models.WorkflowExecutionStep) (ResumePoint, error) {
	if len(steps) == 0 {
		return ResumePoint{Index: 0}, nil
	}

	last := steps[len(steps)-1]

	index, ok := chain.IndexOf(last.NodeID)
	if !ok {
		return ResumePoint{}, fmt.Errorf("%w: node %q", ErrHistoryMismatch, last.NodeID)
	}

	switch {
	case last.Status == models.StepStatusFailed:
		return ResumePoint{Index: index}, nil
	case last.IsPaused():
		return ResumePoint{Index: index, Replay: last}, nil
	}

	next, ok := chain.Next(index)
	if !ok {
		return ResumePoint{Index: chain.Len(), Completed: true}, nil
	}

	return ResumePoint{Index: next}, nil
}
