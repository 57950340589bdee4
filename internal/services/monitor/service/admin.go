package service

import (
	"context"

	"github.com/google/uuid"

	"vaktpost/internal/modkit/repokit"
	"vaktpost/internal/services/monitor/domain"
)

// Admin surface: rule and facility management consumed by the HTTP API

func (s *Service) ListRules(ctx context.Context) ([]domain.Rule, error) {
	var out []domain.Rule
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).ListRules(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (domain.Rule, error) {
	var out domain.Rule
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).GetRule(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) CreateRule(ctx context.Context, r domain.Rule) (domain.Rule, error) {
	if err := r.Validate(); err != nil {
		return domain.Rule{}, err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		if err := s.Binder.Bind(q).InsertRule(ctx, r); err != nil {
			return err
		}
		var err error
		r, err = s.Binder.Bind(q).GetRule(ctx, r.ID)
		return err
	})
	return r, err
}

func (s *Service) UpdateRule(ctx context.Context, r domain.Rule) (domain.Rule, error) {
	if err := r.Validate(); err != nil {
		return domain.Rule{}, err
	}
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		if err := s.Binder.Bind(q).UpdateRule(ctx, r); err != nil {
			return err
		}
		var err error
		r, err = s.Binder.Bind(q).GetRule(ctx, r.ID)
		return err
	})
	return r, err
}

func (s *Service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).DeleteRule(ctx, id)
	})
}

func (s *Service) Facilities(ctx context.Context) ([]domain.Facility, error) {
	var out []domain.Facility
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).Facilities(ctx)
		return err
	})
	return out, err
}

func (s *Service) UpsertFacility(ctx context.Context, f domain.Facility) error {
	return s.DB.Tx(ctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).UpsertFacility(ctx, f)
	})
}

func (s *Service) RecentResults(ctx context.Context, limit int) ([]domain.ExecutionResult, error) {
	var out []domain.ExecutionResult
	err := s.DB.Tx(ctx, func(q repokit.Queryer) error {
		var err error
		out, err = s.Binder.Bind(q).RecentResults(ctx, limit)
		return err
	})
	return out, err
}
