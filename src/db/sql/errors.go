package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers both missing rows and rows owned by another user;
	// callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers duplicate budget keys and categories that are still
	// referenced by transactions.
	ErrConflict = errors.New("conflict")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
