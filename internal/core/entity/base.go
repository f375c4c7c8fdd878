// Package entity provides the base types numbered documents are built from.
package entity

import (
	"context"
	"time"

	"billing/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants
// without touching storage. Failures are returned as AppError.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity holds identity, soft-delete state and the optimistic lock.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	// DeletionMark hides the row from lists; its number stays taken
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version must match the stored row on update and is bumped by the store
	Version int `db:"version" json:"version"`
}

// NewBaseEntity returns a fresh entity with a UUIDv7 and version 1.
func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// BaseDocument adds creation and modification timestamps.
// created_at also orders documents for FinderLatest.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Revisable is implemented by entities whose version and updated_at are
// assigned by the store on update.
type Revisable interface {
	SetRevision(version int, updatedAt time.Time)
}

// SetRevision records the version and timestamp the store wrote.
func (d *BaseDocument) SetRevision(version int, updatedAt time.Time) {
	d.Version = version
	d.UpdatedAt = updatedAt
}

// NewBaseDocument stamps both timestamps with the current UTC time.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
