package module

import (
	"time"

	"vaktpost/internal/platform/config"
	"vaktpost/internal/services/monitor/service"
)

// Options for the monitor module
type Options struct {
	Lang            string
	Country         string
	CacheTTL        time.Duration
	SeenRetention   time.Duration
	DefaultCooldown time.Duration
	ClaimLease      time.Duration
}

// FromConfig fills options from environment
// CORE_MONITOR_LANG (default "no") and CORE_MONITOR_COUNTRY (default "NO") pick the Google News edition
// CORE_MONITOR_CACHE_TTL (default 10m) reuses fetched articles within the window; 0 disables
// CORE_MONITOR_SEEN_RETENTION (default 0) prunes old seen keys; 0 keeps them forever
// CORE_MONITOR_DEFAULT_COOLDOWN (default 1h) applies to proximity rules without their own cooldown
// CORE_MONITOR_CLAIM_LEASE (default 15m) is how long a crashed run may hold a rule claim
func FromConfig(cfg config.Conf) Options {
	m := cfg.Prefix("CORE_MONITOR_")
	return Options{
		Lang:            m.MayString("LANG", "no"),
		Country:         m.MayString("COUNTRY", "NO"),
		CacheTTL:        m.MayDuration("CACHE_TTL", 10*time.Minute),
		SeenRetention:   m.MayDuration("SEEN_RETENTION", 0),
		DefaultCooldown: m.MayDuration("DEFAULT_COOLDOWN", time.Hour),
		ClaimLease:      m.MayDuration("CLAIM_LEASE", 15*time.Minute),
	}
}

func (o Options) serviceConfig() service.Config {
	return service.Config{
		Lang:            o.Lang,
		Country:         o.Country,
		CacheTTL:        o.CacheTTL,
		SeenRetention:   o.SeenRetention,
		DefaultCooldown: o.DefaultCooldown,
		ClaimLease:      o.ClaimLease,
	}
}
