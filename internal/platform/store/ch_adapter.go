package store

import (
	"context"

	"vaktpost/internal/platform/store/ch"
)

// chAdapter wraps ch.CH and implements the Clickhouse seam
type chAdapter struct {
	c *ch.CH
}

func openCH(ctx context.Context, cfg CHConfig) (*chAdapter, error) {
	client, err := ch.Open(ctx, ch.Config{Addr: cfg.Addr, DB: cfg.DB})
	if err != nil {
		return nil, err
	}
	return &chAdapter{c: client}, nil
}

func (a *chAdapter) Ping(ctx context.Context) error { return a.c.Ping(ctx) }

func (a *chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r: rs}, nil
}

func (a *chAdapter) Close() error { return a.c.Close() }

// chRows adapts the native driver rows to the store contract
type chRows struct {
	r interface {
		Next() bool
		Scan(dest ...any) error
		Err() error
		Close() error
	}
}

func (x chRows) Next() bool            { return x.r.Next() }
func (x chRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x chRows) Err() error            { return x.r.Err() }
func (x chRows) Close()                { _ = x.r.Close() }
