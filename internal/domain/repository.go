// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"time"

	"billing/internal/core/entity"
	"billing/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches number or client name (case-insensitive substring)
	Search string

	// NumberPrefix restricts to numbers starting with the prefix (e.g. "JMD/2025-26/")
	NumberPrefix string

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// Date range on the business date (inclusive)
	DateFrom *time.Time
	DateTo   *time.Time

	// OrderBy specifies sorting (e.g., "number", "-date")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns the filter used when a list request sets nothing:
// newest documents first, one page of 50.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-date",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Repository Interfaces ---

// DocumentRepository defines CRUD operations for numbered documents.
// Create and Update must report a number already used by another document
// of the same type with an error matching numerator.ErrDuplicateNumber.
type DocumentRepository[T entity.Validatable] interface {
	// Create inserts a new document
	Create(ctx context.Context, doc T) error

	// GetByID retrieves document by ID
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByNumber retrieves document by its number
	GetByNumber(ctx context.Context, number string) (T, error)

	// Update modifies existing document (with optimistic locking)
	Update(ctx context.Context, doc T) error

	// Delete performs soft delete (sets deletion_mark=true). The number stays reserved.
	Delete(ctx context.Context, id id.ID) error

	// List retrieves documents with filtering and pagination
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
}

// --- Hooks ---

// HookEvent names a point in a document's lifecycle.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook runs at a lifecycle point. Before-create hooks run ahead of
// validation and numbering, so they may fill defaults the number depends on
// (the document date). An error from a before-hook aborts the operation;
// after-hook errors are only logged.
type Hook[T any] func(ctx context.Context, doc T) error

// HookRegistry stores lifecycle hooks for one document type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers hook for event. Hooks run in registration order.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks for event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, doc T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeCreate registers a hook to run before create.
func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) {
	r.On(BeforeCreate, hook)
}

// OnBeforeUpdate registers a hook to run before update.
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) {
	r.On(BeforeUpdate, hook)
}

// OnBeforeSave registers a hook to run before both create and update.
func (r *HookRegistry[T]) OnBeforeSave(hook Hook[T]) {
	r.On(BeforeCreate, hook)
	r.On(BeforeUpdate, hook)
}
