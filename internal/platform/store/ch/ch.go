// Package ch provides a thin ClickHouse client for the match archive
package ch

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse connectivity
type Config struct {
	Addr string
	DB   string
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
}

// Open dials clickhouse with the given config
func Open(ctx context.Context, cfg Config) (*CH, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{Database: cfg.DB},
	})
	if err != nil {
		return nil, err
	}
	return &CH{conn: conn}, nil
}

// Ping reports readiness
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Exec runs a statement without result rows
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	return c.conn.Exec(ctx, sql, args...)
}

// Query runs a query returning rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (driver.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Close releases the connection
func (c *CH) Close() error { return c.conn.Close() }
