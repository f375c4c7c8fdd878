// Package estimate provides the Estimate (quotation) document.
package estimate

import (
	"context"
	"fmt"
	"strings"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/types"
)

// Status of an estimate.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusApproved Status = "APPROVED"
)

// Item is a quoted line. TaxRate is a percentage.
type Item struct {
	Description string      `json:"description"`
	HSNCode     string      `json:"hsnCode,omitempty"`
	Unit        string      `json:"unit,omitempty"`
	Qty         types.Money `json:"qty"`
	Rate        types.Money `json:"rate"`
	TaxRate     types.Money `json:"taxRate"`
	Amount      types.Money `json:"amount"`
	TaxAmount   types.Money `json:"taxAmount"`
}

// Estimate is a priced quotation sent before work starts.
type Estimate struct {
	entity.Document

	ClientID       string `db:"client_id" json:"clientId,omitempty"`
	BillingAddress string `db:"billing_address" json:"billingAddress,omitempty"`
	GSTIN          string `db:"gstin" json:"gstin,omitempty"`
	Attention      string `db:"attention" json:"attention,omitempty"`
	Subject        string `db:"subject" json:"subject,omitempty"`

	Items entity.Lines[Item] `db:"items" json:"items"`

	SubTotal  types.Money `db:"sub_total" json:"subTotal"`
	TaxAmount types.Money `db:"tax_amount" json:"taxAmount"`
	Total     types.Money `db:"total" json:"total"`

	Status Status `db:"status" json:"status"`
	Notes  string `db:"notes" json:"notes,omitempty"`
}

// New creates an empty draft estimate dated now.
func New() *Estimate {
	return &Estimate{
		Document: entity.NewDocument(),
		Status:   StatusDraft,
		Items:    make(entity.Lines[Item], 0),
	}
}

// Recalculate refreshes line amounts, line taxes and totals.
func (e *Estimate) Recalculate() {
	subTotal, tax := types.Zero(), types.Zero()
	for n := range e.Items {
		item := &e.Items[n]
		item.Amount = types.LineAmount(item.Qty, item.Rate)
		item.TaxAmount = types.Percent(item.Amount, item.TaxRate)
		subTotal = subTotal.Add(item.Amount)
		tax = tax.Add(item.TaxAmount)
	}
	e.SubTotal = subTotal
	e.TaxAmount = tax
	e.Total = subTotal.Add(tax)
}

// CanTransition reports whether the status may change from e.Status to next.
// Approved estimates are final.
func (e *Estimate) CanTransition(next Status) bool {
	switch e.Status {
	case "", StatusDraft:
		return next == StatusDraft || next == StatusSent || next == StatusApproved
	case StatusSent:
		return next == StatusSent || next == StatusApproved || next == StatusDraft
	case StatusApproved:
		return next == StatusApproved
	}
	return false
}

// Validate implements entity.Validatable.
func (e *Estimate) Validate(ctx context.Context) error {
	if err := e.Document.Validate(ctx); err != nil {
		return err
	}

	switch e.Status {
	case StatusDraft, StatusSent, StatusApproved:
	default:
		return apperror.NewValidation("unknown estimate status").
			WithDetail("field", "status").
			WithDetail("value", string(e.Status))
	}

	for n, item := range e.Items {
		if strings.TrimSpace(item.Description) == "" {
			return apperror.NewValidation("item description is required").
				WithDetail("field", fmt.Sprintf("items[%d].description", n))
		}
		if item.Qty.IsNegative() || item.Rate.IsNegative() || item.TaxRate.IsNegative() {
			return apperror.NewValidation("item values cannot be negative").
				WithDetail("field", fmt.Sprintf("items[%d]", n))
		}
	}

	return nil
}
