// Package tx provides the transaction abstraction used by domain services.
package tx

import (
	"context"
)

// Manager runs a unit of work in a database transaction.
//
// The transaction travels in ctx; repositories pick it up from there. If fn
// returns an error the work is rolled back, otherwise it is committed. A
// nested call joins the transaction already in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
