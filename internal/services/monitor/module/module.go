// Package module wires the monitor service from core deps and collaborators
package module

import (
	"vaktpost/internal/modkit"
	"vaktpost/internal/modkit/repokit"
	mondom "vaktpost/internal/services/monitor/domain"
	monrepo "vaktpost/internal/services/monitor/repo"
	monservice "vaktpost/internal/services/monitor/service"
)

// Collaborators are the external adapters the coordinator drives
type Collaborators struct {
	News     mondom.NewsFetcher
	Vessels  mondom.VesselFetcher
	Dispatch mondom.Dispatcher
}

// Ports exported by the monitor module
type Ports struct {
	Coordinator mondom.CoordinatorPort
	Admin       mondom.AdminPort
}

// Module bundles the wired monitor service
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs and wires the monitor module using deps.Cfg
func New(deps modkit.Deps, collab Collaborators) *Module {
	opts := FromConfig(deps.Cfg)

	svc := monservice.New(
		repokit.TxRunner(deps.PG),
		monrepo.NewPG(),
		collab.News,
		collab.Vessels,
		collab.Dispatch,
		monrepo.NewArchive(deps.CH),
		opts.serviceConfig(),
	)

	m := &Module{deps: deps}
	m.ports = Ports{Coordinator: svc, Admin: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "monitor" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
