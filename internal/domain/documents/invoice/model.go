// Package invoice provides the Invoice document.
package invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/types"
)

// Status is the payment state of an invoice.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusUnpaid  Status = "UNPAID"
	StatusPartial Status = "PARTIAL"
	StatusPaid    Status = "PAID"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusUnpaid, StatusPartial, StatusPaid:
		return true
	}
	return false
}

// Item is a billed line.
type Item struct {
	Description string      `json:"description"`
	Qty         types.Money `json:"qty"`
	Rate        types.Money `json:"rate"`
	Amount      types.Money `json:"amount"`
}

// Invoice is a tax invoice issued to a client.
type Invoice struct {
	entity.Document

	ClientID string `db:"client_id" json:"clientId,omitempty"`

	// References to the purchase order and delivery challan being billed
	PONumber  string `db:"po_number" json:"poNumber,omitempty"`
	ChallanNo string `db:"challan_no" json:"challanNo,omitempty"`

	Items entity.Lines[Item] `db:"items" json:"items"`

	// Totals: Subtotal is computed from items, Tax is entered, Total = Subtotal + Tax
	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Tax      types.Money `db:"tax" json:"tax"`
	Total    types.Money `db:"total" json:"total"`

	Status  Status     `db:"status" json:"status"`
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`
}

// New creates an empty draft invoice dated now.
func New() *Invoice {
	return &Invoice{
		Document: entity.NewDocument(),
		Status:   StatusDraft,
		Items:    make(entity.Lines[Item], 0),
	}
}

// Recalculate refreshes line amounts and totals.
func (i *Invoice) Recalculate() {
	subtotal := types.Zero()
	for n := range i.Items {
		i.Items[n].Amount = types.LineAmount(i.Items[n].Qty, i.Items[n].Rate)
		subtotal = subtotal.Add(i.Items[n].Amount)
	}
	i.Subtotal = subtotal
	i.Tax = types.RoundMoney(i.Tax)
	i.Total = i.Subtotal.Add(i.Tax)
}

// Validate implements entity.Validatable.
func (i *Invoice) Validate(ctx context.Context) error {
	if err := i.Document.Validate(ctx); err != nil {
		return err
	}

	if len(i.Items) == 0 {
		return apperror.NewValidation("invoice must have at least one item").
			WithDetail("field", "items")
	}

	for n, item := range i.Items {
		if strings.TrimSpace(item.Description) == "" {
			return apperror.NewValidation("item description is required").
				WithDetail("field", fmt.Sprintf("items[%d].description", n))
		}
		if !item.Qty.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("field", fmt.Sprintf("items[%d].qty", n))
		}
		if item.Rate.IsNegative() {
			return apperror.NewValidation("item rate cannot be negative").
				WithDetail("field", fmt.Sprintf("items[%d].rate", n))
		}
	}

	if i.Tax.IsNegative() {
		return apperror.NewValidation("tax cannot be negative").
			WithDetail("field", "tax")
	}

	if !i.Status.Valid() {
		return apperror.NewValidation("unknown invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(i.Status))
	}

	if i.DueDate != nil && i.DueDate.Before(i.Date.Truncate(24*time.Hour)) {
		return apperror.NewValidation("due date cannot be before invoice date").
			WithDetail("field", "dueDate")
	}

	return nil
}
