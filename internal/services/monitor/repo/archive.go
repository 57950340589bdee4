package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/record"
	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/store"
	"vaktpost/internal/services/monitor/domain"
)

// NewArchive returns an Archiver appending matches to ClickHouse. A nil
// seam yields a no-op archiver so the engine runs without the analytics
// backend
func NewArchive(ch store.Clickhouse) domain.Archiver {
	if ch == nil {
		return nopArchive{}
	}
	return &chArchive{ch: ch}
}

type nopArchive struct{}

func (nopArchive) Archive(context.Context, uuid.UUID, []domain.Match, time.Time) error {
	return nil
}

const archiveDDL = `
	CREATE TABLE IF NOT EXISTS match_archive (
		matched_at  DateTime('UTC'),
		rule_id     String,
		identity    String,
		title       String,
		link        String,
		source      String,
		facility    String,
		distance_km Float64
	) ENGINE = MergeTree
	ORDER BY (rule_id, matched_at)`

// EnsureArchiveSchema creates the archive table in the configured database;
// a nil seam is a no-op
func EnsureArchiveSchema(ctx context.Context, ch store.Clickhouse) error {
	if ch == nil {
		return nil
	}
	if err := ch.Exec(ctx, archiveDDL); err != nil {
		return perr.Wrapf(err, perr.ErrorCodePersistence, "archive schema")
	}
	return nil
}

type chArchive struct{ ch store.Clickhouse }

func (a *chArchive) Archive(ctx context.Context, ruleID uuid.UUID, matches []domain.Match, at time.Time) error {
	for _, m := range matches {
		err := a.ch.Exec(ctx, `
			INSERT INTO match_archive
			(matched_at, rule_id, identity, title, link, source, facility, distance_km)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			at.UTC(), ruleID.String(), m.Record.Identity(),
			m.Record.Get(record.KeyTitle),
			m.Record.Get(record.KeyLink),
			m.Record.Get(record.KeySource),
			m.Facility, m.DistanceKM,
		)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodePersistence, "archive match %s", m.Record.Identity())
		}
	}
	return nil
}
