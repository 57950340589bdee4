// Package schedule computes when recurring rules fire.
//
// Everything here is a pure function of the rule's schedule spec, its last
// fire time and a caller-supplied clock, so the scheduler's persistence and
// tick loop stay out of the firing math
package schedule

import (
	"fmt"
	"time"

	perr "vaktpost/internal/platform/errors"
)

// Kind selects the firing model
type Kind string

const (
	// KindTimeOfDay fires at a fixed UTC clock time, optionally repeating
	// every PeriodHours for sub-daily schedules
	KindTimeOfDay Kind = "time_of_day"

	// KindInterval fires a fixed duration after the previous fire
	KindInterval Kind = "interval"
)

// Spec is a rule's schedule
type Spec struct {
	Kind Kind

	// TimeOfDay is minutes from midnight UTC (KindTimeOfDay)
	TimeOfDay int

	// PeriodHours repeats a time-of-day schedule within the day; zero
	// means daily
	PeriodHours int

	// Interval is the polling period (KindInterval)
	Interval time.Duration
}

// Validate rejects specs the scheduler cannot fire
func (s Spec) Validate() error {
	switch s.Kind {
	case KindTimeOfDay:
		if s.TimeOfDay < 0 || s.TimeOfDay >= 24*60 {
			return perr.InvalidArgf("time_of_day %d out of range", s.TimeOfDay)
		}
		if s.PeriodHours < 0 || s.PeriodHours > 24 {
			return perr.InvalidArgf("period_hours %d out of range", s.PeriodHours)
		}
	case KindInterval:
		if s.Interval <= 0 {
			return perr.InvalidArgf("interval must be positive, got %v", s.Interval)
		}
	default:
		return perr.InvalidArgf("unknown schedule kind %q", s.Kind)
	}
	return nil
}

// NextFire returns the first fire time strictly after lastFired. For
// time-of-day specs that is the next occurrence of the clock time (stepped
// by PeriodHours when set); for interval specs it is lastFired + Interval
func (s Spec) NextFire(lastFired time.Time) time.Time {
	if s.Kind == KindInterval {
		return lastFired.Add(s.Interval)
	}

	last := lastFired.UTC()
	period := time.Duration(s.PeriodHours) * time.Hour
	if period <= 0 {
		period = 24 * time.Hour
	}

	// anchor one day back so sub-daily steps cannot skip past the first
	// occurrence after lastFired
	midnight := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	cand := midnight.Add(time.Duration(s.TimeOfDay)*time.Minute - 24*time.Hour)
	for !cand.After(last) {
		cand = cand.Add(period)
	}
	return cand
}

// Due reports whether the rule should fire at now. A rule that has never
// fired is due immediately
func (s Spec) Due(lastFired *time.Time, now time.Time) bool {
	if lastFired == nil {
		return true
	}
	return !s.NextFire(*lastFired).After(now)
}

// ParseClock converts an "HH:MM" string to minutes from midnight
func ParseClock(s string) (int, error) {
	var hh, mm int
	if n, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil || n != 2 || len(s) != 5 || s[2] != ':' {
		return 0, perr.InvalidArgf("clock time %q is not HH:MM", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, perr.InvalidArgf("clock time %q out of range", s)
	}
	return hh*60 + mm, nil
}

// FormatClock renders minutes from midnight as "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
