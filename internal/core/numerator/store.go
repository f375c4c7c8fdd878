package numerator

import (
	"context"
	"errors"
)

// ErrDuplicateNumber is returned (possibly wrapped) by persistence when a
// number is already taken by another document of the same type.
var ErrDuplicateNumber = errors.New("document number already exists")

// Store is the read side of document persistence needed for numbering.
// Implementations must include soft-deleted documents: their numbers stay reserved.
type Store interface {
	// FindByPrefix returns every stored number of docType starting with prefix.
	FindByPrefix(ctx context.Context, docType DocumentType, prefix string) ([]string, error)

	// FindLatest returns the number of the most recently created document of docType.
	// ok is false when no document exists.
	FindLatest(ctx context.Context, docType DocumentType) (number string, ok bool, err error)

	// Exists reports whether number is already used by a document of docType.
	Exists(ctx context.Context, docType DocumentType, number string) (bool, error)
}
