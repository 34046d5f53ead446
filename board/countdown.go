package board

import (
	"fmt"
	"time"
)

// ExpiredLabel is shown for tasks whose due time has passed.
const ExpiredLabel = "Time is up!"

const (
	msPerMinute = int64(60 * 1000)
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// datetime-local values, with and without seconds.
var datetimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// Countdown is the time left until a task is due.
type Countdown struct {
	// Valid is false when the due datetime could not be parsed.
	Valid   bool
	Expired bool
	Days    int64
	Hours   int64
	Minutes int64
}

// String renders the countdown label: ExpiredLabel, "<d>d <h>h <m>m", or ""
// for an invalid due time.
func (c Countdown) String() string {
	switch {
	case !c.Valid:
		return ""
	case c.Expired:
		return ExpiredLabel
	}
	return fmt.Sprintf("%dd %dh %dm", c.Days, c.Hours, c.Minutes)
}

// ParseDatetime parses an ISO-local datetime in loc.
func ParseDatetime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	var err error
	for _, layout := range datetimeLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q: %w", s, err)
}

// ComputeCountdown derives the countdown from due to now. The remainder is
// split into days, hours and minutes by integer division; nothing is rounded.
func ComputeCountdown(due, now time.Time) Countdown {
	if !due.After(now) {
		return Countdown{Valid: true, Expired: true}
	}
	diff := due.Sub(now).Milliseconds()
	return Countdown{
		Valid:   true,
		Days:    diff / msPerDay,
		Hours:   (diff % msPerDay) / msPerHour,
		Minutes: (diff % msPerHour) / msPerMinute,
	}
}

func countdownFor(datetime string, now time.Time, loc *time.Location) Countdown {
	due, err := ParseDatetime(datetime, loc)
	if err != nil {
		return Countdown{}
	}
	return ComputeCountdown(due, now)
}
