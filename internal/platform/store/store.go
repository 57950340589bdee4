// Package store provides a unified interface to optional storage backends
package store

import (
	"context"
	"errors"
	"fmt"

	perr "vaktpost/internal/platform/errors"
	"vaktpost/internal/platform/logger"
)

// Store is the facade for optional backends; zero value is safe but does nothing
type Store struct {
	Log logger.Logger

	// PG is the postgres sql seam, nil when disabled
	PG TxRunner

	// CH is the clickhouse archive seam, nil when disabled
	CH Clickhouse
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is a tiny seam for columnar appends
type Clickhouse interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Config aggregates per backend configuration
type Config struct {
	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32
}

// CHConfig configures the optional clickhouse archive
type CHConfig struct {
	Enabled bool
	Addr    string
	DB      string
}

// Option mutates the Store during Open
type Option func(*Store) error

// WithLogger attaches a logger to the store
func WithLogger(l logger.Logger) Option {
	return func(s *Store) error {
		s.Log = l
		return nil
	}
}

// Open constructs a Store with the requested backends; backends not enabled
// in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.Enabled {
		pgc, err := openPG(ctx, cfg.PG)
		if err != nil {
			return nil, perr.WrapIf(err, perr.ErrorCodeUnavailable, "postgres open")
		}
		s.PG = pgc
	}
	if cfg.CH.Enabled {
		chc, err := openCH(ctx, cfg.CH)
		if err != nil {
			return nil, perr.WrapIf(err, perr.ErrorCodeUnavailable, "clickhouse open")
		}
		s.CH = chc
	}
	return s, nil
}

// Guard verifies all configured seams answer a ping.
// A failing guard at boot is the fatal "corrupt/unreachable store" condition;
// the process must not continue
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if s.PG != nil {
		if p, ok := any(s.PG).(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("pg: %w", err))
			}
		}
	}
	if s.CH != nil {
		if p, ok := any(s.CH).(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("ch: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases all backends
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.PG != nil {
		if c, ok := any(s.PG).(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if s.CH != nil {
		if err := s.CH.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
