package api

import (
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/schedule"
	"vaktpost/internal/services/monitor/domain"
)

// ruleScheduleDTO is the wire form of a schedule spec; time_of_day travels
// as an HH:MM clock string
type ruleScheduleDTO struct {
	Kind            string `json:"kind" validate:"required,oneof=time_of_day interval"`
	TimeOfDay       string `json:"time_of_day,omitempty" validate:"required_if=Kind time_of_day,omitempty,hhmm"`
	PeriodHours     int    `json:"period_hours,omitempty" validate:"gte=0,lte=24"`
	IntervalSeconds int    `json:"interval_seconds,omitempty" validate:"gte=0"`
}

type ruleRequest struct {
	Name      string          `json:"name" validate:"required"`
	Kind      string          `json:"kind" validate:"required,oneof=keyword proximity"`
	Enabled   *bool           `json:"enabled,omitempty"`
	Recipient string          `json:"recipient,omitempty"`
	Schedule  ruleScheduleDTO `json:"schedule" validate:"required"`

	IncludeTerms string   `json:"include_terms,omitempty" validate:"required_if=Kind keyword"`
	ExcludeTerms string   `json:"exclude_terms,omitempty"`
	Sources      []string `json:"sources,omitempty" validate:"omitempty,dive,url"`
	WindowDays   int      `json:"window_days,omitempty" validate:"gte=0"`

	Endpoint        string  `json:"endpoint,omitempty" validate:"required_if=Kind proximity,omitempty,url"`
	SubjectTerms    string  `json:"subject_terms,omitempty"`
	RadiusKM        float64 `json:"radius_km,omitempty" validate:"required_if=Kind proximity,omitempty,gt=0"`
	CooldownSeconds int     `json:"cooldown_seconds,omitempty" validate:"gte=0"`
}

func (in ruleRequest) toDomain(id uuid.UUID) (domain.Rule, error) {
	spec := schedule.Spec{
		Kind:        schedule.Kind(in.Schedule.Kind),
		PeriodHours: in.Schedule.PeriodHours,
		Interval:    time.Duration(in.Schedule.IntervalSeconds) * time.Second,
	}
	if in.Schedule.TimeOfDay != "" {
		m, err := schedule.ParseClock(in.Schedule.TimeOfDay)
		if err != nil {
			return domain.Rule{}, err
		}
		spec.TimeOfDay = m
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}

	return domain.Rule{
		ID:           id,
		Name:         in.Name,
		Kind:         domain.Kind(in.Kind),
		Enabled:      enabled,
		Recipient:    in.Recipient,
		Schedule:     spec,
		IncludeTerms: in.IncludeTerms,
		ExcludeTerms: in.ExcludeTerms,
		Sources:      in.Sources,
		WindowDays:   in.WindowDays,
		Endpoint:     in.Endpoint,
		SubjectTerms: in.SubjectTerms,
		RadiusKM:     in.RadiusKM,
		Cooldown:     time.Duration(in.CooldownSeconds) * time.Second,
	}, nil
}

type ruleResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Enabled     bool            `json:"enabled"`
	Recipient   string          `json:"recipient,omitempty"`
	Schedule    ruleScheduleDTO `json:"schedule"`
	LastFiredAt *time.Time      `json:"last_fired_at,omitempty"`

	IncludeTerms string   `json:"include_terms,omitempty"`
	ExcludeTerms string   `json:"exclude_terms,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	WindowDays   int      `json:"window_days,omitempty"`

	Endpoint        string  `json:"endpoint,omitempty"`
	SubjectTerms    string  `json:"subject_terms,omitempty"`
	RadiusKM        float64 `json:"radius_km,omitempty"`
	CooldownSeconds int     `json:"cooldown_seconds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRuleResponse(r domain.Rule) ruleResponse {
	out := ruleResponse{
		ID:        r.ID.String(),
		Name:      r.Name,
		Kind:      string(r.Kind),
		Enabled:   r.Enabled,
		Recipient: r.Recipient,
		Schedule: ruleScheduleDTO{
			Kind:            string(r.Schedule.Kind),
			PeriodHours:     r.Schedule.PeriodHours,
			IntervalSeconds: int(r.Schedule.Interval / time.Second),
		},
		LastFiredAt:     r.LastFiredAt,
		IncludeTerms:    r.IncludeTerms,
		ExcludeTerms:    r.ExcludeTerms,
		Sources:         r.Sources,
		WindowDays:      r.WindowDays,
		Endpoint:        r.Endpoint,
		SubjectTerms:    r.SubjectTerms,
		RadiusKM:        r.RadiusKM,
		CooldownSeconds: int(r.Cooldown / time.Second),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Schedule.Kind == schedule.KindTimeOfDay {
		out.Schedule.TimeOfDay = schedule.FormatClock(r.Schedule.TimeOfDay)
	}
	return out
}

type facilityRequest struct {
	Name string  `json:"name" validate:"required"`
	Lat  float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" validate:"gte=-180,lte=180"`
}

type facilityResponse struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type resultResponse struct {
	RuleID    string    `json:"rule_id"`
	RuleName  string    `json:"rule_name"`
	Recipient string    `json:"recipient,omitempty"`
	Matched   int       `json:"matched"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	RanAt     time.Time `json:"ran_at"`
}

func toResultResponse(r domain.ExecutionResult) resultResponse {
	return resultResponse{
		RuleID:    r.RuleID.String(),
		RuleName:  r.RuleName,
		Recipient: r.Recipient,
		Matched:   r.Matched,
		Status:    string(r.Status),
		Error:     r.Error,
		RanAt:     r.RanAt,
	}
}
