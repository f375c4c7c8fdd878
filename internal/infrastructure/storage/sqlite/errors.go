package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"billing/internal/core/apperror"
	"billing/internal/core/numerator"
)

// mapWriteError turns a unique violation on (doc_type, number) into
// numerator.ErrDuplicateNumber. The original error stays in the chain.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case isUniqueViolation(err, "documents.number"):
		return fmt.Errorf("write documents: %w: %w", numerator.ErrDuplicateNumber, err)
	case isUniqueViolation(err, ""):
		return apperror.NewConflict("record already exists").
			WithDetail("entity", "documents").
			WithCause(err)
	}
	return fmt.Errorf("write documents: %w", err)
}

// isUniqueViolation reports a UNIQUE or PRIMARY KEY failure whose message
// mentions column (any column when empty).
func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return column == "" || strings.Contains(msg, column)
		}
		return false
	}
	// Wrapped or mocked drivers only keep the message.
	return strings.Contains(msg, "UNIQUE constraint failed") &&
		(column == "" || strings.Contains(msg, column))
}
