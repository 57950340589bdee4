package repo

import (
	"context"
	_ "embed"
	"strings"

	"vaktpost/internal/modkit/repokit"
	perr "vaktpost/internal/platform/errors"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema applies the engine DDL. Every statement is IF NOT EXISTS so
// calling it on every boot is safe.
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := q.Exec(ctx, stmt); err != nil {
			return perr.FromPG(err, "schema.ensure")
		}
	}
	return nil
}
