// Package repo provides the monitor storage implementations: Postgres for
// rules, dedup state and bookkeeping, ClickHouse for the match archive
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/record"
	"vaktpost/internal/core/schedule"
	"vaktpost/internal/modkit/repokit"
	perr "vaktpost/internal/platform/errors"
	pstrings "vaktpost/internal/platform/strings"
	"vaktpost/internal/services/monitor/domain"
)

// NewPG returns a binder producing the Postgres-backed StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] {
	return repokit.BindFunc[domain.StorageRepo](func(q repokit.Queryer) domain.StorageRepo {
		return &pgStore{q: q}
	})
}

type pgStore struct{ q repokit.Queryer }

const ruleColumns = `
	id, name, kind, enabled, recipient,
	sched_kind, sched_time_of_day, sched_period_hours, sched_interval_seconds,
	last_fired_at,
	include_terms, exclude_terms, sources, window_days,
	endpoint, subject_terms, radius_km, cooldown_seconds,
	created_at, updated_at`

func scanRule(row repokit.Row) (domain.Rule, error) {
	var (
		r           domain.Rule
		schedKind   string
		intervalSec int64
		cooldownSec int64
	)
	err := row.Scan(
		&r.ID, &r.Name, &r.Kind, &r.Enabled, &r.Recipient,
		&schedKind, &r.Schedule.TimeOfDay, &r.Schedule.PeriodHours, &intervalSec,
		&r.LastFiredAt,
		&r.IncludeTerms, &r.ExcludeTerms, &r.Sources, &r.WindowDays,
		&r.Endpoint, &r.SubjectTerms, &r.RadiusKM, &cooldownSec,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return domain.Rule{}, err
	}
	r.Schedule.Kind = schedule.Kind(schedKind)
	r.Schedule.Interval = time.Duration(intervalSec) * time.Second
	r.Cooldown = time.Duration(cooldownSec) * time.Second
	return r, nil
}

func (s *pgStore) EnabledRules(ctx context.Context) ([]domain.Rule, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+ruleColumns+`
		  FROM rules
		 WHERE enabled
		 ORDER BY created_at`)
	if err != nil {
		return nil, perr.FromPG(err, "rules.enabled")
	}
	defer rows.Close()

	var out []domain.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, perr.FromPG(err, "rules.enabled.scan")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "rules.enabled.rows")
	}
	return out, nil
}

// ClaimRule takes the rule's run claim. A 'running' row whose claim is
// older than lease counts as abandoned and is reclaimable, so a process
// that crashed mid-run cannot starve the rule
func (s *pgStore) ClaimRule(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	row := s.q.QueryRow(ctx, `
		WITH next AS (
			SELECT id FROM rules
			 WHERE id = $1
			   AND (status = 'idle' OR updated_at < now() - make_interval(secs => $2))
			   FOR UPDATE SKIP LOCKED
		)
		UPDATE rules r
		   SET status = 'running', updated_at = now()
		  FROM next
		 WHERE r.id = next.id
		 RETURNING r.id`, id, lease.Seconds())
	var got uuid.UUID
	if err := row.Scan(&got); err != nil {
		if perr.IsCode(perr.FromPG(err, "rules.claim"), perr.ErrorCodeNotFound) {
			return false, nil
		}
		return false, perr.FromPG(err, "rules.claim")
	}
	return true, nil
}

func (s *pgStore) ReleaseRule(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `
		UPDATE rules SET status = 'idle', updated_at = now() WHERE id = $1`, id)
	return perr.FromPG(err, "rules.release")
}

func (s *pgStore) UpdateLastFired(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.q.Exec(ctx, `
		UPDATE rules SET last_fired_at = $2, updated_at = now() WHERE id = $1`, id, at.UTC())
	return perr.FromPG(err, "rules.last_fired")
}

func (s *pgStore) FilterSeen(ctx context.Context, ruleID uuid.UUID, identities []string) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(identities))
	if len(identities) == 0 {
		return seen, nil
	}
	rows, err := s.q.Query(ctx, `
		SELECT identity FROM seen_keys
		 WHERE rule_id = $1 AND identity = ANY($2)`, ruleID, identities)
	if err != nil {
		return nil, perr.FromPG(err, "seen.filter")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, perr.FromPG(err, "seen.filter.scan")
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "seen.filter.rows")
	}
	return seen, nil
}

func (s *pgStore) MarkSeen(ctx context.Context, ruleID uuid.UUID, identities []string, at time.Time) error {
	if len(identities) == 0 {
		return nil
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO seen_keys (rule_id, identity, seen_at)
		SELECT $1, unnest($2::text[]), $3
		ON CONFLICT (rule_id, identity) DO NOTHING`, ruleID, identities, at.UTC())
	return perr.FromPG(err, "seen.mark")
}

func (s *pgStore) PruneSeen(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM seen_keys WHERE seen_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, perr.FromPG(err, "seen.prune")
	}
	return tag.RowsAffected(), nil
}

func (s *pgStore) LastAlerts(ctx context.Context, ruleID uuid.UUID, pairs []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(pairs))
	if len(pairs) == 0 {
		return out, nil
	}
	rows, err := s.q.Query(ctx, `
		SELECT pair_key, last_alert_at FROM proximity_state
		 WHERE rule_id = $1 AND pair_key = ANY($2)`, ruleID, pairs)
	if err != nil {
		return nil, perr.FromPG(err, "alerts.last")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			at  time.Time
		)
		if err := rows.Scan(&key, &at); err != nil {
			return nil, perr.FromPG(err, "alerts.last.scan")
		}
		out[key] = at.UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "alerts.last.rows")
	}
	return out, nil
}

func (s *pgStore) TouchAlert(ctx context.Context, ruleID uuid.UUID, pair string, at time.Time) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO proximity_state (rule_id, pair_key, last_alert_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (rule_id, pair_key) DO UPDATE SET last_alert_at = EXCLUDED.last_alert_at`,
		ruleID, pair, at.UTC())
	return perr.FromPG(err, "alerts.touch")
}

func (s *pgStore) Facilities(ctx context.Context) ([]domain.Facility, error) {
	rows, err := s.q.Query(ctx, `SELECT id, name, lat, lon FROM facilities ORDER BY name`)
	if err != nil {
		return nil, perr.FromPG(err, "facilities.list")
	}
	defer rows.Close()
	var out []domain.Facility
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Lat, &f.Lon); err != nil {
			return nil, perr.FromPG(err, "facilities.scan")
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "facilities.rows")
	}
	return out, nil
}

func (s *pgStore) UpsertFacility(ctx context.Context, f domain.Facility) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO facilities (id, name, lat, lon)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET lat = EXCLUDED.lat, lon = EXCLUDED.lon`,
		f.ID, f.Name, f.Lat, f.Lon)
	return perr.FromPG(err, "facilities.upsert")
}

func (s *pgStore) GetRule(ctx context.Context, id uuid.UUID) (domain.Rule, error) {
	row := s.q.QueryRow(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = $1`, id)
	r, err := scanRule(row)
	if err != nil {
		return domain.Rule{}, perr.FromPG(err, "rules.get")
	}
	return r, nil
}

func (s *pgStore) ListRules(ctx context.Context) ([]domain.Rule, error) {
	rows, err := s.q.Query(ctx, `SELECT `+ruleColumns+` FROM rules ORDER BY created_at`)
	if err != nil {
		return nil, perr.FromPG(err, "rules.list")
	}
	defer rows.Close()
	var out []domain.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, perr.FromPG(err, "rules.list.scan")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "rules.list.rows")
	}
	return out, nil
}

func (s *pgStore) InsertRule(ctx context.Context, r domain.Rule) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO rules (
			id, name, kind, enabled, recipient,
			sched_kind, sched_time_of_day, sched_period_hours, sched_interval_seconds,
			include_terms, exclude_terms, sources, window_days,
			endpoint, subject_terms, radius_km, cooldown_seconds,
			status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			'idle', now(), now()
		)`,
		r.ID, r.Name, string(r.Kind), r.Enabled, r.Recipient,
		string(r.Schedule.Kind), r.Schedule.TimeOfDay, r.Schedule.PeriodHours,
		int64(r.Schedule.Interval/time.Second),
		r.IncludeTerms, r.ExcludeTerms, r.Sources, r.WindowDays,
		r.Endpoint, r.SubjectTerms, r.RadiusKM, int64(r.Cooldown/time.Second),
	)
	return perr.FromPG(err, "rules.insert")
}

func (s *pgStore) UpdateRule(ctx context.Context, r domain.Rule) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE rules SET
			name = $2, kind = $3, enabled = $4, recipient = $5,
			sched_kind = $6, sched_time_of_day = $7, sched_period_hours = $8,
			sched_interval_seconds = $9,
			include_terms = $10, exclude_terms = $11, sources = $12,
			window_days = $13,
			endpoint = $14, subject_terms = $15, radius_km = $16,
			cooldown_seconds = $17,
			updated_at = now()
		 WHERE id = $1`,
		r.ID, r.Name, string(r.Kind), r.Enabled, r.Recipient,
		string(r.Schedule.Kind), r.Schedule.TimeOfDay, r.Schedule.PeriodHours,
		int64(r.Schedule.Interval/time.Second),
		r.IncludeTerms, r.ExcludeTerms, r.Sources,
		r.WindowDays,
		r.Endpoint, r.SubjectTerms, r.RadiusKM, int64(r.Cooldown/time.Second),
	)
	if err != nil {
		return perr.FromPG(err, "rules.update")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("rule %s not found", r.ID)
	}
	return nil
}

func (s *pgStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return perr.FromPG(err, "rules.delete")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("rule %s not found", id)
	}
	return nil
}

func (s *pgStore) InsertResult(ctx context.Context, res domain.ExecutionResult) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO results_log (rule_id, rule_name, recipient, matched, status, error, ran_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.RuleID, res.RuleName, res.Recipient, res.Matched,
		string(res.Status), pstrings.SQLNull(res.Error), res.RanAt.UTC())
	return perr.FromPG(err, "results.insert")
}

func (s *pgStore) RecentResults(ctx context.Context, limit int) ([]domain.ExecutionResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.Query(ctx, `
		SELECT rule_id, rule_name, recipient, matched, status, COALESCE(error, ''), ran_at
		  FROM results_log
		 ORDER BY ran_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, perr.FromPG(err, "results.recent")
	}
	defer rows.Close()
	var out []domain.ExecutionResult
	for rows.Next() {
		var res domain.ExecutionResult
		var status string
		if err := rows.Scan(&res.RuleID, &res.RuleName, &res.Recipient,
			&res.Matched, &status, &res.Error, &res.RanAt); err != nil {
			return nil, perr.FromPG(err, "results.recent.scan")
		}
		res.Status = domain.Status(status)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPG(err, "results.recent.rows")
	}
	return out, nil
}

func (s *pgStore) CachedNews(ctx context.Context, sourceKey string, since time.Time) ([]record.NewsItem, bool, error) {
	rows, err := s.q.Query(ctx, `
		SELECT title, summary, link, source, published_at
		  FROM article_cache
		 WHERE source_key = $1 AND fetched_at >= $2
		 ORDER BY published_at DESC`, sourceKey, since.UTC())
	if err != nil {
		return nil, false, perr.FromPG(err, "cache.read")
	}
	defer rows.Close()
	var out []record.NewsItem
	for rows.Next() {
		var it record.NewsItem
		if err := rows.Scan(&it.Title, &it.Summary, &it.Link, &it.Source, &it.PublishedAt); err != nil {
			return nil, false, perr.FromPG(err, "cache.read.scan")
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, false, perr.FromPG(err, "cache.read.rows")
	}
	return out, len(out) > 0, nil
}

func (s *pgStore) StoreNews(ctx context.Context, sourceKey string, items []record.NewsItem, fetchedAt time.Time) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM article_cache WHERE source_key = $1`, sourceKey); err != nil {
		return perr.FromPG(err, "cache.clear")
	}
	for _, it := range items {
		if _, err := s.q.Exec(ctx, `
			INSERT INTO article_cache (source_key, title, summary, link, source, published_at, fetched_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sourceKey, it.Title, it.Summary, it.Link, it.Source,
			it.PublishedAt.UTC(), fetchedAt.UTC()); err != nil {
			return perr.FromPG(err, "cache.write")
		}
	}
	return nil
}
