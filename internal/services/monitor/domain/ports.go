package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/record"
)

// CoordinatorPort is the public entrypoint exposed by the module.
// The scheduler binary calls RunTick once per tick; the admin API can force
// a single rule through RunRule
type CoordinatorPort interface {
	// RunTick evaluates every due enabled rule once. The returned error is
	// non-nil only for store unavailability, which aborts the whole tick
	RunTick(ctx context.Context, now time.Time) ([]ExecutionResult, error)

	// RunRule executes one rule immediately regardless of its schedule
	RunRule(ctx context.Context, id uuid.UUID, now time.Time) (ExecutionResult, error)
}

// AdminPort exposes rule and facility management to the HTTP API
type AdminPort interface {
	ListRules(ctx context.Context) ([]Rule, error)
	GetRule(ctx context.Context, id uuid.UUID) (Rule, error)
	CreateRule(ctx context.Context, r Rule) (Rule, error)
	UpdateRule(ctx context.Context, r Rule) (Rule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error

	Facilities(ctx context.Context) ([]Facility, error)
	UpsertFacility(ctx context.Context, f Facility) error

	RecentResults(ctx context.Context, limit int) ([]ExecutionResult, error)
}

// StorageRepo encapsulates all Postgres state the engine touches.
// Implementations are bound to a Queryer so dedup writes and bookkeeping can
// share one transaction per rule
type StorageRepo interface {
	// EnabledRules returns every enabled rule; due filtering happens in the
	// service where the schedule math lives
	EnabledRules(ctx context.Context) ([]Rule, error)

	// ClaimRule marks a rule running with FOR UPDATE SKIP LOCKED semantics;
	// false means another worker holds a live claim. Claims older than lease
	// are abandoned and may be retaken
	ClaimRule(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error)

	// ReleaseRule returns a claimed rule to idle
	ReleaseRule(ctx context.Context, id uuid.UUID) error

	// UpdateLastFired advances the rule's schedule anchor
	UpdateLastFired(ctx context.Context, id uuid.UUID, at time.Time) error

	// FilterSeen returns which of the identities are already recorded for
	// the rule
	FilterSeen(ctx context.Context, ruleID uuid.UUID, identities []string) (map[string]struct{}, error)

	// MarkSeen records identities permanently for the rule
	MarkSeen(ctx context.Context, ruleID uuid.UUID, identities []string, at time.Time) error

	// PruneSeen deletes seen keys older than cutoff, for bounded retention
	PruneSeen(ctx context.Context, cutoff time.Time) (int64, error)

	// LastAlerts returns the most recent alert time per (facility, subject)
	// pair key
	LastAlerts(ctx context.Context, ruleID uuid.UUID, pairs []string) (map[string]time.Time, error)

	// TouchAlert slides a pair's cooldown window to at
	TouchAlert(ctx context.Context, ruleID uuid.UUID, pair string, at time.Time) error

	Facilities(ctx context.Context) ([]Facility, error)
	UpsertFacility(ctx context.Context, f Facility) error

	GetRule(ctx context.Context, id uuid.UUID) (Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	InsertRule(ctx context.Context, r Rule) error
	UpdateRule(ctx context.Context, r Rule) error
	DeleteRule(ctx context.Context, id uuid.UUID) error

	InsertResult(ctx context.Context, res ExecutionResult) error
	RecentResults(ctx context.Context, limit int) ([]ExecutionResult, error)

	// CachedNews returns items fetched for sourceKey since the cutoff; ok
	// is false when the cache has nothing fresh
	CachedNews(ctx context.Context, sourceKey string, since time.Time) ([]record.NewsItem, bool, error)

	// StoreNews replaces the cache slice for sourceKey
	StoreNews(ctx context.Context, sourceKey string, items []record.NewsItem, fetchedAt time.Time) error
}

// NewsFetcher pulls articles from RSS feeds
type NewsFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]record.NewsItem, error)
	FetchQuery(ctx context.Context, term, lang, country string) ([]record.NewsItem, error)
}

// VesselFetcher pulls AIS positions
type VesselFetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]record.VesselItem, error)
}

// Dispatcher delivers matched records downstream (report + mail)
type Dispatcher interface {
	Deliver(ctx context.Context, rule Rule, matches []Match) error
}

// Archiver appends matched records to the analytics sink, best-effort
type Archiver interface {
	Archive(ctx context.Context, ruleID uuid.UUID, matches []Match, at time.Time) error
}
