// Package service implements the execution coordinator: fetch, normalize,
// match, dedup and emit for every due rule, one pass per tick
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/match"
	"vaktpost/internal/core/record"
	"vaktpost/internal/core/terms"
	"vaktpost/internal/modkit/repokit"
	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/logger"
	"vaktpost/internal/platform/metrics"
	pstrings "vaktpost/internal/platform/strings"
	"vaktpost/internal/services/monitor/domain"
)

// maxErrorLen caps error text persisted to results_log
const maxErrorLen = 1024

// defaultClaimLease bounds how long a crashed run can hold a rule claim
// before another process may reclaim it
const defaultClaimLease = 15 * time.Minute

// Config controls fetch caching, dedup retention and query-feed locale
type Config struct {
	// Lang/Country select the Google News edition for query feeds
	Lang    string
	Country string

	// CacheTTL reuses cached articles instead of refetching a source; zero
	// disables the cache
	CacheTTL time.Duration

	// SeenRetention prunes seen keys older than this; zero keeps them
	// forever
	SeenRetention time.Duration

	// DefaultCooldown applies to proximity rules with no cooldown of their
	// own
	DefaultCooldown time.Duration

	// ClaimLease is how long a rule claim survives without release before
	// it is considered abandoned; zero uses the default
	ClaimLease time.Duration
}

// Service wires TxRunner + Binder + collaborators into the coordinator
type Service struct {
	DB       repokit.TxRunner
	Binder   repokit.Binder[domain.StorageRepo]
	News     domain.NewsFetcher
	Vessels  domain.VesselFetcher
	Dispatch domain.Dispatcher
	Archive  domain.Archiver
	Cfg      Config
}

// New constructs the coordinator service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	news domain.NewsFetcher,
	vessels domain.VesselFetcher,
	dispatch domain.Dispatcher,
	archive domain.Archiver,
	cfg Config,
) *Service {
	if db == nil {
		panic("monitor.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("monitor.Service requires a non nil Repo binder")
	}
	if archive == nil {
		archive = noArchive{}
	}
	return &Service{
		DB: db, Binder: binder,
		News: news, Vessels: vessels,
		Dispatch: dispatch, Archive: archive,
		Cfg: cfg,
	}
}

type noArchive struct{}

func (noArchive) Archive(context.Context, uuid.UUID, []domain.Match, time.Time) error {
	return nil
}

// RunTick evaluates every due enabled rule once. Per-rule failures are
// folded into that rule's result; only store unavailability returns an
// error and aborts the pass
func (s *Service) RunTick(ctx context.Context, now time.Time) ([]domain.ExecutionResult, error) {
	l := logger.C(ctx)

	var rules []domain.Rule
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		var err error
		rules, err = s.Binder.Bind(q).EnabledRules(ctx)
		return err
	}); err != nil {
		metrics.Ticks.WithLabelValues("aborted").Inc()
		return nil, err
	}

	var results []domain.ExecutionResult
	for _, rule := range rules {
		if !rule.Schedule.Due(rule.LastFiredAt, now) {
			continue
		}
		res, err := s.execute(ctx, rule, now)
		if err != nil {
			metrics.Ticks.WithLabelValues("aborted").Inc()
			return results, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}

	if s.Cfg.SeenRetention > 0 {
		cutoff := now.Add(-s.Cfg.SeenRetention)
		if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
			n, err := s.Binder.Bind(q).PruneSeen(ctx, cutoff)
			if n > 0 {
				l.Debug().Int64("pruned", n).Msg("seen keys pruned")
			}
			return err
		}); err != nil {
			l.Warn().Err(err).Msg("seen key pruning failed")
		}
	}

	metrics.Ticks.WithLabelValues("ok").Inc()
	return results, nil
}

// RunRule executes one rule immediately, bypassing its schedule
func (s *Service) RunRule(ctx context.Context, id uuid.UUID, now time.Time) (domain.ExecutionResult, error) {
	var rule domain.Rule
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		var err error
		rule, err = s.Binder.Bind(q).GetRule(ctx, id)
		return err
	}); err != nil {
		return domain.ExecutionResult{}, err
	}

	res, err := s.execute(ctx, rule, now)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	if res == nil {
		return domain.ExecutionResult{}, perr.Newf(perr.ErrorCodeConflict, "rule %s is already running", id)
	}
	return *res, nil
}

// execute claims the rule, runs it and always releases the claim. A nil
// result with nil error means the claim was held elsewhere
func (s *Service) execute(ctx context.Context, rule domain.Rule, now time.Time) (*domain.ExecutionResult, error) {
	ctx = logger.WithRule(ctx, rule.ID.String())
	l := logger.C(ctx)

	lease := s.Cfg.ClaimLease
	if lease <= 0 {
		lease = defaultClaimLease
	}

	var claimed bool
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		var err error
		claimed, err = s.Binder.Bind(q).ClaimRule(ctx, rule.ID, lease)
		return err
	}); err != nil {
		return nil, err
	}
	if !claimed {
		l.Debug().Msg("rule claimed elsewhere, skipping")
		return nil, nil
	}

	// released via defer so a panicking collaborator cannot leave the claim
	// held for the life of the process; a crashed process is covered by the
	// claim lease
	defer func() {
		if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).ReleaseRule(ctx, rule.ID)
		}); err != nil {
			l.Error().Err(err).Msg("claim release failed; lease expiry will recover it")
		}
	}()

	res, runErr := s.runClaimed(ctx, rule, now)
	if runErr != nil {
		return nil, runErr
	}
	return &res, nil
}

func (s *Service) runClaimed(ctx context.Context, rule domain.Rule, now time.Time) (domain.ExecutionResult, error) {
	l := logger.C(ctx)
	res := domain.ExecutionResult{
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Recipient: rule.Recipient,
		Status:    domain.StatusOK,
		RanAt:     now,
	}

	matches, fetchErr := s.evaluate(ctx, rule, now)
	if fetchErr != nil {
		if storeDown(fetchErr) {
			return res, fetchErr
		}
		// fetch failure: record the outcome but keep LastFiredAt stale so
		// the rule refires next tick
		metrics.RuleFailures.WithLabelValues("fetch").Inc()
		l.Warn().Err(fetchErr).Msg("rule fetch failed")
		res.Status = domain.StatusPartialFailure
		res.Error = pstrings.Truncate(fetchErr.Error(), maxErrorLen)
		if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
			return s.Binder.Bind(q).InsertResult(ctx, res)
		}); err != nil {
			return res, err
		}
		return res, nil
	}

	// suppression state and the fired marker commit as one unit: either the
	// run happened durably (and delivery past this point is at-most-once),
	// or nothing was recorded and the next tick re-processes the batch
	var fresh []domain.Match
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		r := s.Binder.Bind(q)
		var err error
		fresh, err = s.dedup(ctx, r, rule, matches, now)
		if err != nil {
			return err
		}
		return r.UpdateLastFired(ctx, rule.ID, now)
	}); err != nil {
		return res, err
	}
	res.Matched = len(fresh)

	if len(fresh) > 0 {
		if err := s.Dispatch.Deliver(ctx, rule, fresh); err != nil {
			// a handled failure: the run already counts as fired
			metrics.RuleFailures.WithLabelValues("dispatch").Inc()
			l.Error().Err(err).Int("matches", len(fresh)).Msg("dispatch failed")
			res.Status = domain.StatusError
			res.Error = pstrings.Truncate(err.Error(), maxErrorLen)
		} else if err := s.Archive.Archive(ctx, rule.ID, fresh, now); err != nil {
			// archive is best-effort analytics, never changes the outcome
			l.Warn().Err(err).Msg("match archive write failed")
		}
	}

	// history row only; losing it to a crash loses a log line, not state
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).InsertResult(ctx, res)
	}); err != nil {
		return res, err
	}

	l.Info().Int("matched", res.Matched).Str("status", string(res.Status)).Msg("rule executed")
	return res, nil
}

func (s *Service) evaluate(ctx context.Context, rule domain.Rule, now time.Time) ([]domain.Match, error) {
	switch rule.Kind {
	case domain.KindKeyword:
		return s.evaluateKeyword(ctx, rule, now)
	case domain.KindProximity:
		return s.evaluateProximity(ctx, rule)
	default:
		return nil, perr.InvalidArgf("rule %s has unknown kind %q", rule.ID, rule.Kind)
	}
}

func (s *Service) evaluateKeyword(ctx context.Context, rule domain.Rule, now time.Time) ([]domain.Match, error) {
	include := terms.Tokenize(rule.IncludeTerms)
	exclude := terms.Tokenize(rule.ExcludeTerms)

	items, err := s.fetchNews(ctx, rule, now)
	if err != nil {
		return nil, err
	}
	metrics.ItemsFetched.WithLabelValues("news").Add(float64(len(items)))

	var cutoff time.Time
	if rule.WindowDays > 0 {
		cutoff = now.AddDate(0, 0, -rule.WindowDays)
	}

	var matches []domain.Match
	for _, it := range items {
		rec, err := record.FromNews(it)
		if err != nil {
			s.skip(ctx, err, it.Title)
			continue
		}
		if !cutoff.IsZero() && rec.Timestamp.Before(cutoff) {
			metrics.ItemsSkipped.WithLabelValues("outside_window").Inc()
			continue
		}
		if match.Keyword(rec, include, exclude) {
			metrics.Matches.WithLabelValues("keyword").Inc()
			matches = append(matches, domain.Match{Record: rec})
		}
	}
	return matches, nil
}

// fetchNews pulls each source of the rule, serving from the article cache
// when it is fresh enough. Cache failures degrade to a refetch
func (s *Service) fetchNews(ctx context.Context, rule domain.Rule, now time.Time) ([]record.NewsItem, error) {
	l := logger.C(ctx)

	type source struct{ key, url string }
	var sources []source
	for _, u := range rule.Sources {
		sources = append(sources, source{key: u, url: u})
	}
	if len(sources) == 0 {
		sources = append(sources, source{key: "query:" + rule.IncludeTerms})
	}

	var items []record.NewsItem
	for _, src := range sources {
		if s.Cfg.CacheTTL > 0 {
			var cached []record.NewsItem
			var ok bool
			err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
				var err error
				cached, ok, err = s.Binder.Bind(q).CachedNews(ctx, src.key, now.Add(-s.Cfg.CacheTTL))
				return err
			})
			if err != nil {
				l.Warn().Err(err).Str("source", src.key).Msg("article cache read failed")
			} else if ok {
				items = append(items, cached...)
				continue
			}
		}

		var fetched []record.NewsItem
		var err error
		if src.url != "" {
			fetched, err = s.News.Fetch(ctx, src.url)
		} else {
			fetched, err = s.News.FetchQuery(ctx, rule.IncludeTerms, s.Cfg.Lang, s.Cfg.Country)
		}
		if err != nil {
			return nil, err
		}
		if s.Cfg.CacheTTL > 0 {
			if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
				return s.Binder.Bind(q).StoreNews(ctx, src.key, fetched, now)
			}); err != nil {
				l.Warn().Err(err).Str("source", src.key).Msg("article cache write failed")
			}
		}
		items = append(items, fetched...)
	}
	return items, nil
}

func (s *Service) evaluateProximity(ctx context.Context, rule domain.Rule) ([]domain.Match, error) {
	subjects := terms.Tokenize(rule.SubjectTerms)

	var facilities []domain.Facility
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		var err error
		facilities, err = s.Binder.Bind(q).Facilities(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	vessels, err := s.Vessels.Fetch(ctx, rule.Endpoint)
	if err != nil {
		return nil, err
	}
	metrics.ItemsFetched.WithLabelValues("ais").Add(float64(len(vessels)))

	var matches []domain.Match
	for _, v := range vessels {
		rec, err := record.FromVessel(v)
		if err != nil {
			s.skip(ctx, err, v.MMSI)
			continue
		}
		for _, f := range facilities {
			ok, d := match.Proximity(rec, match.Point{Lat: f.Lat, Lon: f.Lon}, rule.RadiusKM, subjects)
			if ok {
				metrics.Matches.WithLabelValues("proximity").Inc()
				matches = append(matches, domain.Match{Record: rec, Facility: f.Name, DistanceKM: d})
			}
		}
	}
	return matches, nil
}

// dedup filters matches through the rule's suppression policy and records
// the survivors on r. The caller runs it inside the same transaction as the
// rest of the run's bookkeeping so the suppression writes and the "reported"
// decision cannot commit separately
func (s *Service) dedup(ctx context.Context, r domain.StorageRepo, rule domain.Rule, matches []domain.Match, now time.Time) ([]domain.Match, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	var fresh []domain.Match
	switch rule.Kind {
	case domain.KindKeyword:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.Record.Identity())
		}
		seen, err := r.FilterSeen(ctx, rule.ID, ids)
		if err != nil {
			return nil, err
		}
		var newIDs []string
		for _, m := range matches {
			id := m.Record.Identity()
			if _, dup := seen[id]; dup {
				metrics.Suppressed.WithLabelValues("content").Inc()
				continue
			}
			seen[id] = struct{}{} // also dedupes within the batch
			newIDs = append(newIDs, id)
			fresh = append(fresh, m)
		}
		if err := r.MarkSeen(ctx, rule.ID, newIDs, now); err != nil {
			return nil, err
		}

	case domain.KindProximity:
		cooldown := rule.Cooldown
		if cooldown <= 0 {
			cooldown = s.Cfg.DefaultCooldown
		}
		pairs := make([]string, 0, len(matches))
		for _, m := range matches {
			pairs = append(pairs, m.PairKey())
		}
		last, err := r.LastAlerts(ctx, rule.ID, pairs)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			key := m.PairKey()
			if t, ok := last[key]; ok && m.Record.Timestamp.Sub(t) < cooldown {
				metrics.Suppressed.WithLabelValues("cooldown").Inc()
				continue
			}
			if err := r.TouchAlert(ctx, rule.ID, key, m.Record.Timestamp); err != nil {
				return nil, err
			}
			last[key] = m.Record.Timestamp // slides the window within the batch
			fresh = append(fresh, m)
		}
	}
	return fresh, nil
}

func (s *Service) skip(ctx context.Context, err error, ref string) {
	reason := "malformed"
	if perr.IsCode(err, perr.ErrorCodeInvalidCoordinate) {
		reason = "invalid_coordinate"
	}
	metrics.ItemsSkipped.WithLabelValues(reason).Inc()
	logger.C(ctx).Debug().Err(err).Str("item", ref).Msg("item skipped during normalization")
}

func storeDown(err error) bool {
	return perr.IsCode(err, perr.ErrorCodePersistence) || perr.IsCode(err, perr.ErrorCodeUnavailable)
}
