package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Lines is a document table part stored as a JSON array (JSONB in PostgreSQL).
// Implements sql.Scanner and driver.Valuer.
type Lines[T any] []T

// Scan implements sql.Scanner.
func (l *Lines[T]) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Lines: %T", src)
	}

	if len(source) == 0 {
		*l = nil
		return nil
	}

	var result []T
	if err := json.Unmarshal(source, &result); err != nil {
		return fmt.Errorf("failed to decode Lines: %w", err)
	}
	*l = result
	return nil
}

// Value implements driver.Valuer. A nil slice is stored as an empty array.
func (l Lines[T]) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}
