// Package api exposes the admin HTTP surface: rule and facility management,
// recent results, forced runs, health and metrics
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/metrics"
	"vaktpost/internal/platform/web"
	"vaktpost/internal/platform/web/bind"
	mondom "vaktpost/internal/services/monitor/domain"
)

// Module mounts the admin routes over the monitor ports
type Module struct {
	coord mondom.CoordinatorPort
	admin mondom.AdminPort
}

// New constructs the API module
func New(coord mondom.CoordinatorPort, admin mondom.AdminPort) *Module {
	if coord == nil || admin == nil {
		panic("api.Module requires monitor ports")
	}
	return &Module{coord: coord, admin: admin}
}

// MountRoutes attaches all admin endpoints
func (m *Module) MountRoutes(r web.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/rules", func(r web.Router) {
		r.Get("/", web.JSONHandler(m.listRules))
		r.Post("/", web.JSONHandler(m.createRule))
		r.Get("/{id}", web.JSONHandler(m.getRule))
		r.Put("/{id}", web.JSONHandler(m.updateRule))
		r.Delete("/{id}", web.JSONHandler(m.deleteRule))
		r.Post("/{id}/run", web.JSONHandler(m.runRule))
	})

	r.Route("/facilities", func(r web.Router) {
		r.Get("/", web.JSONHandler(m.listFacilities))
		r.Post("/", web.JSONHandler(m.upsertFacility))
	})

	r.Get("/results", web.JSONHandler(m.recentResults))
}

func ruleID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(web.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, perr.InvalidArgf("rule id must be a uuid")
	}
	return id, nil
}

func (m *Module) listRules(r *http.Request) (any, error) {
	rules, err := m.admin.ListRules(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	return out, nil
}

func (m *Module) createRule(r *http.Request) (any, error) {
	in, err := bind.ParseJSON[ruleRequest](r)
	if err != nil {
		return nil, err
	}
	rule, err := in.toDomain(uuid.New())
	if err != nil {
		return nil, err
	}
	created, err := m.admin.CreateRule(r.Context(), rule)
	if err != nil {
		return nil, err
	}
	return toRuleResponse(created), nil
}

func (m *Module) getRule(r *http.Request) (any, error) {
	id, err := ruleID(r)
	if err != nil {
		return nil, err
	}
	rule, err := m.admin.GetRule(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return toRuleResponse(rule), nil
}

func (m *Module) updateRule(r *http.Request) (any, error) {
	id, err := ruleID(r)
	if err != nil {
		return nil, err
	}
	in, err := bind.ParseJSON[ruleRequest](r)
	if err != nil {
		return nil, err
	}
	rule, err := in.toDomain(id)
	if err != nil {
		return nil, err
	}
	updated, err := m.admin.UpdateRule(r.Context(), rule)
	if err != nil {
		return nil, err
	}
	return toRuleResponse(updated), nil
}

func (m *Module) deleteRule(r *http.Request) (any, error) {
	id, err := ruleID(r)
	if err != nil {
		return nil, err
	}
	if err := m.admin.DeleteRule(r.Context(), id); err != nil {
		return nil, err
	}
	return map[string]string{"deleted": id.String()}, nil
}

func (m *Module) runRule(r *http.Request) (any, error) {
	id, err := ruleID(r)
	if err != nil {
		return nil, err
	}
	res, err := m.coord.RunRule(r.Context(), id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return toResultResponse(res), nil
}

func (m *Module) listFacilities(r *http.Request) (any, error) {
	facs, err := m.admin.Facilities(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]facilityResponse, 0, len(facs))
	for _, f := range facs {
		out = append(out, facilityResponse{ID: f.ID.String(), Name: f.Name, Lat: f.Lat, Lon: f.Lon})
	}
	return out, nil
}

func (m *Module) upsertFacility(r *http.Request) (any, error) {
	in, err := bind.ParseJSON[facilityRequest](r)
	if err != nil {
		return nil, err
	}
	f := mondom.Facility{ID: uuid.New(), Name: in.Name, Lat: in.Lat, Lon: in.Lon}
	if err := m.admin.UpsertFacility(r.Context(), f); err != nil {
		return nil, err
	}
	return facilityResponse{ID: f.ID.String(), Name: f.Name, Lat: f.Lat, Lon: f.Lon}, nil
}

func (m *Module) recentResults(r *http.Request) (any, error) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			return nil, perr.InvalidArgf("limit must be a positive integer up to 500")
		}
		limit = n
	}
	results, err := m.admin.RecentResults(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, toResultResponse(res))
	}
	return out, nil
}
