// Package domain defines the monitor engine's core types and ports
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/record"
	"vaktpost/internal/core/schedule"
	perr "vaktpost/internal/platform/errors"
)

// Kind selects the rule's matching model
type Kind string

const (
	// KindKeyword matches article text against include/exclude terms
	KindKeyword Kind = "keyword"

	// KindProximity matches vessel positions against facility radii
	KindProximity Kind = "proximity"
)

// Rule is a persistent monitoring rule
type Rule struct {
	ID          uuid.UUID
	Name        string
	Kind        Kind
	Enabled     bool
	Recipient   string
	Schedule    schedule.Spec
	LastFiredAt *time.Time

	// keyword rules
	IncludeTerms string
	ExcludeTerms string
	// Sources are explicit feed URLs; empty means a Google News query feed
	// built from IncludeTerms
	Sources []string
	// WindowDays drops articles published more than N days before the run;
	// zero keeps everything
	WindowDays int

	// proximity rules
	Endpoint     string
	SubjectTerms string
	RadiusKM     float64
	Cooldown     time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate rejects rules the engine cannot execute
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return perr.InvalidArgf("rule needs a name")
	}
	if err := r.Schedule.Validate(); err != nil {
		return err
	}
	switch r.Kind {
	case KindKeyword:
		if strings.TrimSpace(r.IncludeTerms) == "" {
			return perr.InvalidArgf("keyword rule %q needs at least one include term", r.Name)
		}
		if r.WindowDays < 0 {
			return perr.InvalidArgf("keyword rule %q has a negative window", r.Name)
		}
	case KindProximity:
		if strings.TrimSpace(r.Endpoint) == "" {
			return perr.InvalidArgf("proximity rule %q needs an ais endpoint", r.Name)
		}
		if r.RadiusKM <= 0 {
			return perr.InvalidArgf("proximity rule %q needs a positive radius", r.Name)
		}
		if r.Cooldown < 0 {
			return perr.InvalidArgf("proximity rule %q has a negative cooldown", r.Name)
		}
	default:
		return perr.InvalidArgf("unknown rule kind %q", r.Kind)
	}
	return nil
}

// Facility is a fixed installation watched by proximity rules
type Facility struct {
	ID   uuid.UUID
	Name string
	Lat  float64
	Lon  float64
}

// Match is one record that passed a rule's criteria and deduplication
type Match struct {
	Record record.Record

	// Facility and DistanceKM are set for proximity matches only
	Facility   string
	DistanceKM float64
}

// PairKey identifies a (facility, subject) cooldown window
func (m Match) PairKey() string {
	return m.Facility + "|" + m.Record.SubjectIdentity()
}

// Status classifies one rule execution
type Status string

const (
	// StatusOK means the rule ran to completion (zero matches included)
	StatusOK Status = "ok"

	// StatusPartialFailure means the fetch failed; LastFiredAt is not
	// advanced so the rule refires next tick
	StatusPartialFailure Status = "partial_failure"

	// StatusError means matching succeeded but dispatch failed; the run
	// still counts as fired
	StatusError Status = "error"
)

// ExecutionResult is the outcome of one rule run
type ExecutionResult struct {
	RuleID    uuid.UUID
	RuleName  string
	Recipient string
	Matched   int
	Status    Status
	Error     string
	RanAt     time.Time
}
