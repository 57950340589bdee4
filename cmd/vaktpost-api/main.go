package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"vaktpost/internal/adapters/feeds/ais"
	"vaktpost/internal/adapters/feeds/rss"
	"vaktpost/internal/adapters/mail"
	"vaktpost/internal/modkit"
	"vaktpost/internal/modkit/repokit"
	"vaktpost/internal/platform/config"
	"vaktpost/internal/platform/logger"
	"vaktpost/internal/platform/store"
	"vaktpost/internal/platform/web"
	"vaktpost/internal/services/api"
	"vaktpost/internal/services/dispatch"
	monmod "vaktpost/internal/services/monitor/module"
	monrepo "vaktpost/internal/services/monitor/repo"
)

func main() {
	root := config.New()
	l := logger.Get()

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

	// forced runs through POST /rules/{id}/run dispatch mail like the
	// scheduler does, so the API carries the same collaborators
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

	srv := web.NewServer(root)
	api.New(ports.Coordinator, ports.Admin).MountRoutes(srv.Router())

	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("api server failed")
	}
}
