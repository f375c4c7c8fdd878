// Package id generates document identifiers.
//
// UUIDv7 keeps ids roughly in creation order, which the "id DESC" tie-break
// in list and latest-number queries relies on.
package id

import (
	"github.com/google/uuid"
)

// ID identifies a document.
type ID = uuid.UUID

// New returns a UUIDv7, or a random UUID if the clock source fails.
func New() ID {
	if v7, err := uuid.NewV7(); err == nil {
		return v7
	}
	return uuid.New()
}

// Parse converts the textual form of an ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}
