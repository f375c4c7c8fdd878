package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"billing/internal/core/apperror"
	"billing/internal/core/numerator"
)

// PostgreSQL error codes we react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// MapWriteError converts driver errors from INSERT/UPDATE into domain errors.
// A unique violation on a number constraint becomes numerator.ErrDuplicateNumber
// (wrapped, so the original driver error stays in the chain).
func MapWriteError(table string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("write %s: %w", table, err)
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if strings.Contains(pgErr.ConstraintName, "number") {
			return fmt.Errorf("write %s (%s): %w: %w", table, pgErr.ConstraintName, numerator.ErrDuplicateNumber, err)
		}
		return apperror.NewConflict("record already exists").
			WithDetail("entity", table).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case codeForeignKeyViolation:
		return apperror.NewConflict("referenced record does not exist").
			WithDetail("entity", table).
			WithCause(err)
	}
	return fmt.Errorf("write %s: %w", table, err)
}
