// Package modkit provides module wiring and core deps
package modkit

import (
	"vaktpost/internal/modkit/repokit"
	"vaktpost/internal/platform/config"
	"vaktpost/internal/platform/logger"
	"vaktpost/internal/platform/store"
)

// Deps holds core dependencies passed to modules.
// This is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
