package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentPaused_JSONSerialization(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	original := &EnrollmentPaused{
		BaseEvent:    NewBaseEvent(EnrollmentPausedEvent, "wf-123"),
		EnrollmentID: "enr-456",
		NodeID:       "w",
		Reason:       "wait",
		DueAt:        due,
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"enrollment.paused"`)
	assert.Contains(t, string(jsonData), `"enrollment_id":"enr-456"`)
	assert.Contains(t, string(jsonData), `"due_at":"2025-03-12T09:00:00Z"`)

	decoded, ok := New(EnrollmentPausedEvent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal(jsonData, decoded))

	paused, ok := decoded.(*EnrollmentPaused)
	require.True(t, ok)
	assert.Equal(t, original.ID, paused.ID)
	assert.Equal(t, "wf-123", paused.WorkflowID)
	assert.True(t, due.Equal(paused.DueAt))
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType EventType
		want      interface{ GetType() EventType }
	}{
		{EnrollmentCreatedEvent, &EnrollmentCreated{}},
		{EnrollmentAdvancedEvent, &EnrollmentAdvanced{}},
		{EnrollmentPausedEvent, &EnrollmentPaused{}},
		{EnrollmentCompletedEvent, &EnrollmentCompleted{}},
		{EnrollmentFailedEvent, &EnrollmentFailed{}},
		{EnrollmentDeletedEvent, &EnrollmentDeleted{}},
		{WorkflowPublishedEvent, &WorkflowPublished{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			t.Parallel()

			got, ok := New(tt.eventType)
			require.True(t, ok)
			assert.IsType(t, tt.want, got)
			assert.Equal(t, tt.eventType, tt.want.GetType())
		})
	}

	_, ok := New("unknown")
	assert.False(t, ok)
}

func TestTypes_AllDecodable(t *testing.T) {
	t.Parallel()

	types := Types()
	assert.Len(t, types, 7)

	for _, eventType := range types {
		_, ok := New(eventType)
		assert.True(t, ok, eventType)
	}
}
