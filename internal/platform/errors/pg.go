package errors

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FromPG maps common Postgres failures to project error codes so repos can
// return one error vocabulary upstream
func FromPG(err error, op string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, pgx.ErrNoRows) {
		return Wrap(err, ErrorCodeNotFound, op)
	}
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return Wrap(err, ErrorCodeDuplicateKey, op)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return Wrap(err, ErrorCodeUnavailable, op)
		}
	}
	return Wrap(err, ErrorCodePersistence, op)
}

// Retryable reports whether a retry of the same operation may succeed
func Retryable(err error) bool {
	c := CodeOf(err)
	return c == ErrorCodeUnavailable || c == ErrorCodeFetchTimeout
}
