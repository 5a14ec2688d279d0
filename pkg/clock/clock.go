// Package clock provides time and schedule abstractions for production and testing
package clock

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned for cron expressions that cannot be parsed
var ErrInvalidSchedule = errors.New("invalid schedule")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// SystemClock provides production time implementation using the standard library
type SystemClock struct{}

// After returns a channel that sends the current time after the specified duration
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Schedule is a cron schedule evaluated in a fixed location
type Schedule struct {
	spec  string
	sched cron.Schedule
	loc   *time.Location
}

// ParseSchedule parses a standard five-field cron expression or a descriptor
// such as "@hourly". Activation times are computed in loc.
func ParseSchedule(spec string, loc *time.Location) (*Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Schedule{spec: spec, sched: sched, loc: loc}, nil
}

// Next returns the first activation strictly after t
func (s *Schedule) Next(t time.Time) time.Time {
	return s.sched.Next(t.In(s.loc))
}

// String returns the original expression
func (s *Schedule) String() string {
	return s.spec
}
