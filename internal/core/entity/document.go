package entity

import (
	"context"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
)

// Document is the base type for numbered business documents.
// Examples: Invoice, Challan, Estimate, WorkCompletionCertificate.
type Document struct {
	BaseDocument

	// Number is the document number (ORG/FY/SEQ, unique within document type)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document; it selects the fiscal year
	Date time.Time `db:"date" json:"date"`

	// ClientName is a snapshot of the client the document is issued to
	ClientName string `db:"client_name" json:"clientName"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if strings.TrimSpace(d.ClientName) == "" {
		return apperror.NewValidation("client name is required").
			WithDetail("field", "clientName")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// CanModify checks if document can be modified.
func (d *Document) CanModify() error {
	if d.DeletionMark {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Cannot modify a deleted document.",
		).WithDetail("document_id", d.ID.String())
	}
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}

// GetNumber returns the document number.
func (d *Document) GetNumber() string {
	return d.Number
}

// SetNumber assigns the document number.
func (d *Document) SetNumber(number string) {
	d.Number = number
}

// GetDate returns the business date.
func (d *Document) GetDate() time.Time {
	return d.Date
}

// GetVersion returns the optimistic locking version.
func (d *Document) GetVersion() int {
	return d.Version
}

// GetDocument exposes the embedded base document.
func (d *Document) GetDocument() *Document {
	return d
}
