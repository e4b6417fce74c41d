// Package sendwindow decides whether an outbound action may run at a given instant.
package sendwindow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/dukex/leadflow/pkg/models"
)

// DefaultTimezone applies when a window does not name one.
const DefaultTimezone = "America/New_York"

// DefaultAllowedDays is Monday through Friday.
var DefaultAllowedDays = []int{1, 2, 3, 4, 5}

var ErrInvalidWindow = errors.New("invalid send window")

// Policy evaluates send windows against a default location.
type Policy struct {
	location *time.Location
}

// New returns a policy whose windows default to the given IANA timezone.
func New(defaultTimezone string) (*Policy, error) {
	if defaultTimezone == "" {
		defaultTimezone = DefaultTimezone
	}

	location, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load default timezone %q: %w", defaultTimezone, err)
	}

	return &Policy{location: location}, nil
}

// Default returns a policy bound to DefaultTimezone.
func Default() *Policy {
	policy, err := New(DefaultTimezone)
	if err != nil {
		return &Policy{location: time.UTC}
	}

	return policy
}

// IsAllowedNow reports whether now falls inside the window. A nil or
// disabled window always allows. An unparsable window allows as well since
// definitions are validated before they run.
func (p *Policy) IsAllowedNow(window *models.SendWindow, now time.Time) bool {
	if window == nil || !window.Enabled {
		return true
	}

	location := p.location
	if window.Timezone != "" {
		if loaded, err := time.LoadLocation(window.Timezone); err == nil {
			location = loaded
		}
	}

	local := now.In(location)

	days := window.AllowedDays
	if len(days) == 0 {
		days = DefaultAllowedDays
	}

	if !containsDay(days, int(local.Weekday())) {
		return false
	}

	start, err := ParseClock(window.StartTime)
	if err != nil {
		return true
	}

	end, err := ParseClock(window.EndTime)
	if err != nil {
		return true
	}

	current := local.Hour()*60 + local.Minute()

	switch {
	case start == end:
		return true
	case start < end:
		return current >= start && current <= end
	default:
		return current >= start || current <= end
	}
}

// Validate checks the format of an enabled window.
func Validate(window *models.SendWindow) error {
	if window == nil || !window.Enabled {
		return nil
	}

	if _, err := ParseClock(window.StartTime); err != nil {
		return fmt.Errorf("%w: startTime: %w", ErrInvalidWindow, err)
	}

	if _, err := ParseClock(window.EndTime); err != nil {
		return fmt.Errorf("%w: endTime: %w", ErrInvalidWindow, err)
	}

	for _, day := range window.AllowedDays {
		if day < 0 || day > 6 {
			return fmt.Errorf("%w: allowedDays: %d is not a weekday (0-6)", ErrInvalidWindow, day)
		}
	}

	if window.Timezone != "" {
		if _, err := time.LoadLocation(window.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %w", ErrInvalidWindow, window.Timezone, err)
		}
	}

	return nil
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(value string) (int, error) {
	hours, minutes, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found || len(minutes) != 2 || hours == "" || len(hours) > 2 {
		return 0, fmt.Errorf("%q is not in HH:MM format", value)
	}

	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", value)
	}

	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%q has an invalid minute", value)
	}

	return h*60 + m, nil
}

func containsDay(days []int, day int) bool {
	for _, allowed := range days {
		if allowed == day {
			return true
		}
	}

	return false
}
