package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"vaktpost/internal/adapters/feeds/ais"
	"vaktpost/internal/adapters/feeds/rss"
	"vaktpost/internal/adapters/mail"
	"vaktpost/internal/modkit"
	"vaktpost/internal/modkit/repokit"
	"vaktpost/internal/platform/config"
	"vaktpost/internal/platform/logger"
	"vaktpost/internal/platform/store"
	"vaktpost/internal/services/dispatch"
	mondom "vaktpost/internal/services/monitor/domain"
	monmod "vaktpost/internal/services/monitor/module"
	monrepo "vaktpost/internal/services/monitor/repo"
)

func main() {
	root := config.New()
	l := logger.Get()

	var (
		fTick  = flag.Duration("tick", time.Minute, "scheduler tick interval")
		fOnce  = flag.Bool("once", false, "run a single tick and exit")
		fSeeds = flag.String("seeds", "", "optional YAML seed file with facilities")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	st, err := store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("DBURL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
		},
		CH: store.CHConfig{
			Enabled: chCfg.MayBool("ENABLED", false),
			Addr:    chCfg.MayString("ADDR", "localhost:9000"),
			DB:      chCfg.MayString("DB", "vaktpost"),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	if err := monrepo.EnsureSchema(ctx, st.PG); err != nil {
		l.Panic().Err(err).Msg("schema apply failed")
	}
	if err := monrepo.EnsureArchiveSchema(ctx, st.CH); err != nil {
		l.Panic().Err(err).Msg("archive schema apply failed")
	}

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}

	smtp := root.Prefix("SERVICE_SMTP_")
	sender := mail.New(deps.Log, mail.Config{
		Host:     smtp.MustString("HOST"),
		Port:     smtp.MayInt("PORT", 587),
		Username: smtp.MayString("USERNAME", ""),
		Password: smtp.MayString("PASSWORD", ""),
		From:     smtp.MustString("FROM"),
		StartTLS: smtp.MayBool("STARTTLS", true),
	})

	feedTimeout := root.Prefix("CORE_FEEDS_").MayDuration("TIMEOUT", 15*time.Second)
	mon := monmod.New(deps, monmod.Collaborators{
		News:     rss.New(deps.Log, feedTimeout),
		Vessels:  ais.New(deps.Log, feedTimeout),
		Dispatch: dispatch.New(deps.Log, sender),
	})
	ports := mon.Ports()

	if *fSeeds != "" {
		seedFacilities(ctx, *fSeeds, ports.Admin)
	}

	runTick := func(now time.Time) {
		results, err := ports.Coordinator.RunTick(ctx, now)
		if err != nil {
			l.Error().Err(err).Msg("tick aborted, retrying from durable state next tick")
			return
		}
		l.Info().Int("rules_run", len(results)).Msg("tick complete")
	}

	if *fOnce {
		runTick(time.Now().UTC())
		return
	}

	l.Info().Dur("tick", *fTick).Msg("scheduler started")
	runTick(time.Now().UTC())

	ticker := time.NewTicker(*fTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("scheduler stopping")
			return
		case now := <-ticker.C:
			runTick(now.UTC())
		}
	}
}

// seedFacilities upserts the YAML-declared facilities so the running system
// is driven from Postgres, not the file
func seedFacilities(ctx context.Context, path string, admin mondom.AdminPort) {
	l := logger.Get()
	seeds, err := config.LoadSeeds(path)
	if err != nil {
		l.Panic().Err(err).Str("path", path).Msg("seed file unreadable")
	}
	for _, f := range seeds.Facilities {
		fac := mondom.Facility{ID: uuid.New(), Name: f.Name, Lat: f.Latitude, Lon: f.Longitude}
		if err := admin.UpsertFacility(ctx, fac); err != nil {
			l.Panic().Err(err).Str("facility", f.Name).Msg("facility seed failed")
		}
	}
	if len(seeds.Facilities) > 0 {
		l.Info().Int("facilities", len(seeds.Facilities)).Msg("facilities seeded")
	}
}
