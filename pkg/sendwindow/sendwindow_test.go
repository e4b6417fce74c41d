package sendwindow

import (
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-04 is a Tuesday; New York is on EST (UTC-5) that week.
func newYork(t *testing.T, day, hour, minute int) time.Time {
	t.Helper()

	location, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	return time.Date(2025, 3, day, hour, minute, 0, 0, location)
}

func TestPolicy_IsAllowedNow(t *testing.T) {
	t.Parallel()

	policy := Default()

	businessHours := &models.SendWindow{Enabled: true, StartTime: "09:00", EndTime: "17:00"}
	overnight := &models.SendWindow{Enabled: true, StartTime: "22:00", EndTime: "06:00", AllowedDays: []int{0, 1, 2, 3, 4, 5, 6}}
	alwaysOpen := &models.SendWindow{Enabled: true, StartTime: "08:00", EndTime: "08:00"}

	tests := []struct {
		name     string
		window   *models.SendWindow
		now      time.Time
		expected bool
	}{
		{"nil window", nil, newYork(t, 8, 3, 0), true},
		{"disabled window", &models.SendWindow{Enabled: false, StartTime: "09:00", EndTime: "10:00"}, newYork(t, 8, 3, 0), true},
		{"inside business hours", businessHours, newYork(t, 4, 12, 30), true},
		{"start is inclusive", businessHours, newYork(t, 4, 9, 0), true},
		{"end is inclusive", businessHours, newYork(t, 4, 17, 0), true},
		{"after end", businessHours, newYork(t, 4, 17, 1), false},
		{"before start", businessHours, newYork(t, 4, 8, 59), false},
		{"saturday excluded by default days", businessHours, newYork(t, 8, 12, 0), false},
		{"overnight late evening", overnight, newYork(t, 4, 23, 15), true},
		{"overnight early morning", overnight, newYork(t, 5, 5, 59), true},
		{"overnight midday", overnight, newYork(t, 5, 12, 0), false},
		{"equal bounds always open", alwaysOpen, newYork(t, 4, 2, 0), true},
		{"equal bounds still checks day", alwaysOpen, newYork(t, 9, 12, 0), false},
		{"utc instant converted to new york", businessHours, time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC), true},
		{"utc instant before new york opening", businessHours, time.Date(2025, 3, 4, 13, 59, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, policy.IsAllowedNow(tt.window, tt.now))
		})
	}
}

func TestPolicy_ExplicitTimezone(t *testing.T) {
	t.Parallel()

	window := &models.SendWindow{
		Enabled:     true,
		StartTime:   "09:00",
		EndTime:     "17:00",
		AllowedDays: []int{2},
		Timezone:    "Europe/Berlin",
	}

	// 09:30 in Berlin is 03:30 in New York on the same Tuesday.
	now := time.Date(2025, 3, 4, 8, 30, 0, 0, time.UTC)
	assert.True(t, Default().IsAllowedNow(window, now))

	nyWindow := *window
	nyWindow.Timezone = ""
	assert.False(t, Default().IsAllowedNow(&nyWindow, now))
}

func TestNew_DefaultTimezone(t *testing.T) {
	t.Parallel()

	policy, err := New("UTC")
	require.NoError(t, err)

	window := &models.SendWindow{Enabled: true, StartTime: "09:00", EndTime: "10:00"}
	assert.True(t, policy.IsAllowedNow(window, time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)))

	_, err = New("Mars/Olympus_Mons")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate(nil))
	require.NoError(t, Validate(&models.SendWindow{Enabled: false, StartTime: "bogus"}))
	require.NoError(t, Validate(&models.SendWindow{Enabled: true, StartTime: "9:05", EndTime: "23:59", AllowedDays: []int{0, 6}}))

	invalid := []*models.SendWindow{
		{Enabled: true, StartTime: "24:00", EndTime: "10:00"},
		{Enabled: true, StartTime: "09:00", EndTime: "10:60"},
		{Enabled: true, StartTime: "0900", EndTime: "10:00"},
		{Enabled: true, StartTime: "09:00", EndTime: "10:00", AllowedDays: []int{7}},
		{Enabled: true, StartTime: "09:00", EndTime: "10:00", Timezone: "Nowhere/Special"},
	}

	for _, window := range invalid {
		err := Validate(window)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	minutes, err := ParseClock("17:45")
	require.NoError(t, err)
	assert.Equal(t, 17*60+45, minutes)

	minutes, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Equal(t, 0, minutes)

	_, err = ParseClock("")
	require.Error(t, err)
}
