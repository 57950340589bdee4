package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/core/record"
	"vaktpost/internal/core/schedule"
	"vaktpost/internal/modkit/repokit"
	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/testkit"
	"vaktpost/internal/services/monitor/domain"
)

var tickAt = time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

// opLog records the order of store and dispatch operations across the fakes.
// A nil log is a no-op so most tests can ignore it
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) add(op string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

// fakeTx satisfies repokit.TxRunner; the in-memory repo ignores the Queryer
type fakeTx struct{ log *opLog }

func (fakeTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	panic("fakeTx: direct Exec not expected")
}

func (fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error) {
	panic("fakeTx: direct Query not expected")
}

func (fakeTx) QueryRow(context.Context, string, ...any) repokit.Row {
	panic("fakeTx: direct QueryRow not expected")
}

func (f fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	f.log.add("tx-begin")
	if err := fn(f); err != nil {
		f.log.add("tx-rollback")
		return err
	}
	f.log.add("tx-commit")
	return nil
}

type fakeRepo struct {
	mu         sync.Mutex
	rules      map[uuid.UUID]*domain.Rule
	claims     map[uuid.UUID]time.Time
	seen       map[uuid.UUID]map[string]time.Time
	alerts     map[uuid.UUID]map[string]time.Time
	facilities []domain.Facility
	results    []domain.ExecutionResult
	log        *opLog

	// failSeen makes dedup reads fail with a persistence error
	failSeen bool
}

func newFakeRepo(rules ...domain.Rule) *fakeRepo {
	r := &fakeRepo{
		rules:  map[uuid.UUID]*domain.Rule{},
		claims: map[uuid.UUID]time.Time{},
		seen:   map[uuid.UUID]map[string]time.Time{},
		alerts: map[uuid.UUID]map[string]time.Time{},
	}
	for i := range rules {
		rr := rules[i]
		r.rules[rr.ID] = &rr
	}
	return r
}

func (f *fakeRepo) binder() repokit.Binder[domain.StorageRepo] {
	return repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return f })
}

func (f *fakeRepo) EnabledRules(context.Context) ([]domain.Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Rule
	for _, r := range f.rules {
		if r.Enabled {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ClaimRule(_ context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if at, ok := f.claims[id]; ok && time.Since(at) < lease {
		return false, nil
	}
	f.claims[id] = time.Now()
	return true, nil
}

func (f *fakeRepo) ReleaseRule(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, id)
	return nil
}

func (f *fakeRepo) UpdateLastFired(_ context.Context, id uuid.UUID, at time.Time) error {
	f.log.add("update_last_fired")
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rules[id]; ok {
		t := at
		r.LastFiredAt = &t
	}
	return nil
}

func (f *fakeRepo) FilterSeen(_ context.Context, ruleID uuid.UUID, ids []string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSeen {
		return nil, perr.Persistencef("seen store down")
	}
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := f.seen[ruleID][id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkSeen(_ context.Context, ruleID uuid.UUID, ids []string, at time.Time) error {
	f.log.add("mark_seen")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[ruleID] == nil {
		f.seen[ruleID] = map[string]time.Time{}
	}
	for _, id := range ids {
		f.seen[ruleID][id] = at
	}
	return nil
}

func (f *fakeRepo) PruneSeen(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.seen {
		for id, at := range m {
			if at.Before(cutoff) {
				delete(m, id)
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeRepo) LastAlerts(_ context.Context, ruleID uuid.UUID, pairs []string) (map[string]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]time.Time{}
	for _, p := range pairs {
		if at, ok := f.alerts[ruleID][p]; ok {
			out[p] = at
		}
	}
	return out, nil
}

func (f *fakeRepo) TouchAlert(_ context.Context, ruleID uuid.UUID, pair string, at time.Time) error {
	f.log.add("touch_alert")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alerts[ruleID] == nil {
		f.alerts[ruleID] = map[string]time.Time{}
	}
	f.alerts[ruleID][pair] = at
	return nil
}

func (f *fakeRepo) Facilities(context.Context) ([]domain.Facility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Facility(nil), f.facilities...), nil
}

func (f *fakeRepo) UpsertFacility(_ context.Context, fac domain.Facility) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facilities = append(f.facilities, fac)
	return nil
}

func (f *fakeRepo) GetRule(_ context.Context, id uuid.UUID) (domain.Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rules[id]; ok {
		return *r, nil
	}
	return domain.Rule{}, perr.NotFoundf("rule %s not found", id)
}

func (f *fakeRepo) ListRules(context.Context) ([]domain.Rule, error) {
	return f.EnabledRules(context.Background())
}

func (f *fakeRepo) InsertRule(_ context.Context, r domain.Rule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[r.ID] = &r
	return nil
}

func (f *fakeRepo) UpdateRule(_ context.Context, r domain.Rule) error {
	return f.InsertRule(context.Background(), r)
}

func (f *fakeRepo) DeleteRule(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rules, id)
	return nil
}

func (f *fakeRepo) InsertResult(_ context.Context, res domain.ExecutionResult) error {
	f.log.add("insert_result")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return nil
}

func (f *fakeRepo) RecentResults(_ context.Context, limit int) ([]domain.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]domain.ExecutionResult(nil), f.results...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CachedNews(context.Context, string, time.Time) ([]record.NewsItem, bool, error) {
	return nil, false, nil
}

func (f *fakeRepo) StoreNews(context.Context, string, []record.NewsItem, time.Time) error {
	return nil
}

type fakeNews struct {
	items []record.NewsItem
	err   error
}

func (f *fakeNews) Fetch(context.Context, string) ([]record.NewsItem, error) {
	return f.items, f.err
}

func (f *fakeNews) FetchQuery(context.Context, string, string, string) ([]record.NewsItem, error) {
	return f.items, f.err
}

type fakeVessels struct {
	items []record.VesselItem
	err   error
}

func (f *fakeVessels) Fetch(context.Context, string) ([]record.VesselItem, error) {
	return f.items, f.err
}

type fakeDispatch struct {
	mu        sync.Mutex
	delivered [][]domain.Match
	err       error
	log       *opLog
}

func (f *fakeDispatch) Deliver(_ context.Context, _ domain.Rule, matches []domain.Match) error {
	f.log.add("deliver")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, matches)
	return nil
}

func (f *fakeDispatch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func keywordRule(include string) domain.Rule {
	return domain.Rule{
		ID:           uuid.New(),
		Name:         "press watch",
		Kind:         domain.KindKeyword,
		Enabled:      true,
		Recipient:    "ops@example.com",
		IncludeTerms: include,
		Schedule:     schedule.Spec{Kind: schedule.KindInterval, Interval: time.Hour},
	}
}

func proximityRule(radius float64, cooldown time.Duration) domain.Rule {
	return domain.Rule{
		ID:           uuid.New(),
		Name:         "coast guard watch",
		Kind:         domain.KindProximity,
		Enabled:      true,
		Recipient:    "ops@example.com",
		Endpoint:     "http://ais.local/positions",
		SubjectTerms: "kystvakt, kv",
		RadiusKM:     radius,
		Cooldown:     cooldown,
		Schedule:     schedule.Spec{Kind: schedule.KindInterval, Interval: time.Minute},
	}
}

func newService(repo *fakeRepo, news domain.NewsFetcher, vessels domain.VesselFetcher, d domain.Dispatcher) *Service {
	return New(fakeTx{}, repo.binder(), news, vessels, d, nil, Config{
		DefaultCooldown: time.Hour,
	})
}

func TestRunTickKeywordMatchAndContentDedup(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", Source: "Reuters", PublishedAt: tickAt},
		{Title: "Weather today", Link: "https://example.com/a/2", Source: "Reuters", PublishedAt: tickAt},
	}}
	disp := &fakeDispatch{}
	svc := newService(repo, news, nil, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	res := results[0]
	if res.Status != domain.StatusOK || res.Matched != 1 {
		t.Fatalf("result = %+v", res)
	}
	if disp.count() != 1 {
		t.Fatalf("dispatch calls = %d, want 1", disp.count())
	}
	if repo.rules[rule.ID].LastFiredAt == nil {
		t.Fatalf("last fired must advance on success")
	}

	// second pass with the same articles: content dedup suppresses, nothing
	// is dispatched again
	later := tickAt.Add(2 * time.Hour)
	results, err = svc.RunTick(context.Background(), later)
	if err != nil {
		t.Fatalf("second RunTick: %v", err)
	}
	if len(results) != 1 || results[0].Matched != 0 {
		t.Fatalf("second run should match nothing, got %+v", results)
	}
	if disp.count() != 1 {
		t.Fatalf("suppressed matches must not be dispatched")
	}
}

func TestRunTickSkipsRulesNotDue(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	fired := tickAt.Add(-time.Minute)
	rule.LastFiredAt = &fired
	repo := newFakeRepo(rule)
	disp := &fakeDispatch{}
	svc := newService(repo, &fakeNews{}, nil, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("rule fired %v ago must not be due on a 1h interval", time.Minute)
	}
}

func TestRunTickFetchFailureIsPartialAndKeepsLastFired(t *testing.T) {
	t.Parallel()

	broken := keywordRule("equinor")
	healthy := keywordRule("oil")
	repo := newFakeRepo(broken, healthy)
	disp := &fakeDispatch{}

	// both rules share the news fetcher here, so fail everything
	news := &fakeNews{err: perr.FetchTimeoutf("upstream stalled")}
	svc := newService(repo, news, nil, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("fetch failures must not abort the tick: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, res := range results {
		if res.Status != domain.StatusPartialFailure {
			t.Fatalf("status = %s, want partial_failure", res.Status)
		}
	}
	if repo.rules[broken.ID].LastFiredAt != nil {
		t.Fatalf("fetch failure must not advance last fired")
	}
}

func TestRunTickStoreFailureAbortsTick(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	repo.failSeen = true
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt},
	}}
	svc := newService(repo, news, nil, &fakeDispatch{})

	_, err := svc.RunTick(context.Background(), tickAt)
	if !perr.IsCode(err, perr.ErrorCodePersistence) {
		t.Fatalf("store failure must abort the tick with a persistence error, got %v", err)
	}
}

func TestRunTickDispatchFailureStillAdvancesLastFired(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt},
	}}
	disp := &fakeDispatch{err: perr.Unavailablef("smtp down")}
	svc := newService(repo, news, nil, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 1 || results[0].Status != domain.StatusError {
		t.Fatalf("dispatch failure should yield status error, got %+v", results)
	}
	if repo.rules[rule.ID].LastFiredAt == nil {
		t.Fatalf("dispatch failure is a handled failure and must advance last fired")
	}
}

func TestRunTickProximityCooldown(t *testing.T) {
	t.Parallel()

	rule := proximityRule(5, 30*time.Minute)
	repo := newFakeRepo(rule)
	repo.facilities = []domain.Facility{{ID: uuid.New(), Name: "Platform A", Lat: 60.0, Lon: 5.0}}

	vessels := &fakeVessels{items: []record.VesselItem{
		{MMSI: "257123000", Name: "KV Sortland", Type: "Coast Guard", Lat: 60.03, Lon: 5.0, At: tickAt},
		{MMSI: "257999000", Name: "Fishing Anna", Type: "Fishing", Lat: 60.03, Lon: 5.0, At: tickAt},
	}}
	disp := &fakeDispatch{}
	svc := newService(repo, nil, vessels, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 1 || results[0].Matched != 1 {
		t.Fatalf("only the coast guard vessel should alert, got %+v", results)
	}

	// same vessel ten minutes later, still inside the cooldown window
	vessels.items[0].At = tickAt.Add(10 * time.Minute)
	vessels.items[0].Lat = 60.02
	results, err = svc.RunTick(context.Background(), tickAt.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if results[0].Matched != 0 {
		t.Fatalf("alert within cooldown must be suppressed, got %+v", results[0])
	}

	// past the cooldown the pair alerts again and the window slides
	vessels.items[0].At = tickAt.Add(45 * time.Minute)
	results, err = svc.RunTick(context.Background(), tickAt.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if results[0].Matched != 1 {
		t.Fatalf("alert past cooldown must fire again, got %+v", results[0])
	}
}

func TestRunTickSkipsClaimedRule(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	repo.claims[rule.ID] = time.Now()
	svc := newService(repo, &fakeNews{}, nil, &fakeDispatch{})

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("claimed rule must be skipped, got %+v", results)
	}
}

func TestRunTickReclaimsExpiredClaim(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	// a run that died mid-flight an hour ago; well past the claim lease
	repo.claims[rule.ID] = time.Now().Add(-time.Hour)
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt},
	}}
	disp := &fakeDispatch{}
	svc := newService(repo, news, nil, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 1 || results[0].Matched != 1 {
		t.Fatalf("abandoned claim must be retaken and the rule run, got %+v", results)
	}
	if disp.count() != 1 {
		t.Fatalf("dispatch calls = %d, want 1", disp.count())
	}
}

func TestRunTickSkipsMalformedItemsButKeepsBatch(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	news := &fakeNews{items: []record.NewsItem{
		{Title: "no publish time", Link: "https://example.com/bad"},
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt},
	}}
	svc := newService(repo, news, nil, &fakeDispatch{})

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 1 || results[0].Matched != 1 {
		t.Fatalf("one bad item must not sink the batch, got %+v", results)
	}
}

func TestRunRuleBypassesSchedule(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	fired := tickAt.Add(-time.Minute)
	rule.LastFiredAt = &fired // not due
	repo := newFakeRepo(rule)
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt},
	}}
	svc := newService(repo, news, nil, &fakeDispatch{})

	res, err := svc.RunRule(context.Background(), rule.ID, tickAt)
	if err != nil {
		t.Fatalf("RunRule: %v", err)
	}
	if res.Matched != 1 {
		t.Fatalf("forced run should evaluate regardless of schedule, got %+v", res)
	}
}

func TestRunRuleConflictsWhenClaimed(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	repo.claims[rule.ID] = time.Now()
	svc := newService(repo, &fakeNews{}, nil, &fakeDispatch{})

	_, err := svc.RunRule(context.Background(), rule.ID, tickAt)
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestSeenRetentionPrunesOldKeys(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	repo.seen[rule.ID] = map[string]time.Time{
		"url:old": tickAt.Add(-48 * time.Hour),
		"url:new": tickAt.Add(-time.Hour),
	}
	svc := newService(repo, &fakeNews{}, nil, &fakeDispatch{})
	svc.Cfg.SeenRetention = 24 * time.Hour

	if _, err := svc.RunTick(context.Background(), tickAt); err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if _, ok := repo.seen[rule.ID]["url:old"]; ok {
		t.Fatalf("old seen key should be pruned")
	}
	if _, ok := repo.seen[rule.ID]["url:new"]; !ok {
		t.Fatalf("fresh seen key should survive")
	}
}

func opIndex(t *testing.T, ops []string, op string) int {
	t.Helper()
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	t.Fatalf("op %q not recorded in %v", op, ops)
	return -1
}

func TestSuppressionCommitsWithFiredMarker(t *testing.T) {
	t.Parallel()

	log := &opLog{}
	rule := keywordRule("equinor")
	repo := newFakeRepo(rule)
	repo.log = log
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt},
	}}
	disp := &fakeDispatch{log: log}
	svc := New(fakeTx{log: log}, repo.binder(), news, nil, disp, nil, Config{DefaultCooldown: time.Hour})

	if _, err := svc.RunTick(context.Background(), tickAt); err != nil {
		t.Fatalf("RunTick: %v", err)
	}

	ops := log.list()
	seen := opIndex(t, ops, "mark_seen")
	fired := opIndex(t, ops, "update_last_fired")
	deliver := opIndex(t, ops, "deliver")
	history := opIndex(t, ops, "insert_result")

	// the seen keys and the fired marker must be one atomic write; a commit
	// in between would suppress the batch forever if the process died there
	if seen > fired {
		t.Fatalf("mark_seen must precede update_last_fired: %v", ops)
	}
	for i := seen + 1; i < fired; i++ {
		if ops[i] == "tx-commit" {
			t.Fatalf("commit between mark_seen and update_last_fired: %v", ops)
		}
	}

	// delivery happens only after that unit is durable, never inside it
	committed := false
	for i := fired + 1; i < deliver; i++ {
		if ops[i] == "tx-commit" {
			committed = true
		}
	}
	if !committed {
		t.Fatalf("delivery must wait for the bookkeeping commit: %v", ops)
	}
	if history < deliver {
		t.Fatalf("history row must record the delivery outcome: %v", ops)
	}
}

func TestRunTickKeywordWindowFiltersOldArticles(t *testing.T) {
	t.Parallel()

	rule := keywordRule("equinor")
	rule.WindowDays = 7
	repo := newFakeRepo(rule)
	news := &fakeNews{items: []record.NewsItem{
		{Title: "Equinor announces new field", Link: "https://example.com/a/1", PublishedAt: tickAt.Add(-24 * time.Hour)},
		{Title: "Equinor archive piece", Link: "https://example.com/a/2", PublishedAt: tickAt.AddDate(0, 0, -30)},
	}}
	disp := &fakeDispatch{}
	svc := newService(repo, news, nil, disp)

	results, err := svc.RunTick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(results) != 1 || results[0].Matched != 1 {
		t.Fatalf("article outside the window must not match, got %+v", results)
	}
	if disp.count() != 1 || len(disp.delivered[0]) != 1 {
		t.Fatalf("exactly the fresh article should be delivered")
	}
	if got := disp.delivered[0][0].Record.Get(record.KeyTitle); got != "Equinor announces new field" {
		t.Fatalf("delivered %q, want the fresh article", got)
	}
}

func TestNewPanicsOnMissingSeams(t *testing.T) {
	t.Parallel()

	testkit.MustPanic(t, func() {
		New(nil, nil, &fakeNews{}, nil, &fakeDispatch{}, nil, Config{})
	})
	testkit.MustPanic(t, func() {
		New(fakeTx{}, nil, &fakeNews{}, nil, &fakeDispatch{}, nil, Config{})
	})
	testkit.MustNotPanic(t, func() {
		New(fakeTx{}, newFakeRepo().binder(), &fakeNews{}, nil, &fakeDispatch{}, nil, Config{})
	})
}
