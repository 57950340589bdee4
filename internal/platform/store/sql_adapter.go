package store

import (
	"context"
	"errors"

	"vaktpost/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgAdapter wraps pg.PG and implements RowQuerier + TxRunner
type pgAdapter struct {
	p *pg.PG
}

func openPG(ctx context.Context, cfg PGConfig) (*pgAdapter, error) {
	client, err := pg.Open(ctx, pg.Config{URL: cfg.URL, MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, err
	}
	return &pgAdapter{p: client}, nil
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	ct, err := a.p.Pool.Exec(ctx, sql, args...)
	return tag{ct}, err
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := a.p.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return a.p.Pool.QueryRow(ctx, sql, args...)
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txQuerier{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// txQuerier adapts a pgx.Tx to RowQuerier
type txQuerier struct {
	tx pgx.Tx
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	ct, err := t.tx.Exec(ctx, sql, args...)
	return tag{ct}, err
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rs, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// adapters for pgx to our tiny Rows/CommandTag

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }

type tag struct{ t pgconn.CommandTag }

func (x tag) String() string       { return x.t.String() }
func (x tag) RowsAffected() int64  { return x.t.RowsAffected() }
