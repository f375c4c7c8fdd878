// Package challan provides the delivery Challan document.
package challan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/types"
)

// Item is a delivered line. Challans carry no prices.
type Item struct {
	Description string      `json:"description"`
	Size        string      `json:"size,omitempty"`
	HSN         string      `json:"hsn,omitempty"`
	Qty         types.Money `json:"qty"`
}

// Challan accompanies goods delivered to a client site.
type Challan struct {
	entity.Document

	// Client's order being delivered against
	OrderNo   string     `db:"order_no" json:"orderNo,omitempty"`
	OrderDate *time.Time `db:"order_date" json:"orderDate,omitempty"`

	// Client snapshot printed on the challan
	ClientAddress   string `db:"client_address" json:"clientAddress,omitempty"`
	ClientGST       string `db:"client_gst" json:"clientGst,omitempty"`
	ClientState     string `db:"client_state" json:"clientState,omitempty"`
	ClientStateCode string `db:"client_state_code" json:"clientStateCode,omitempty"`
	ContactPerson   string `db:"contact_person" json:"contactPerson,omitempty"`

	Items entity.Lines[Item] `db:"items" json:"items"`
}

// New creates an empty challan dated now.
func New() *Challan {
	return &Challan{
		Document: entity.NewDocument(),
		Items:    make(entity.Lines[Item], 0),
	}
}

// TotalQty sums delivered quantities.
func (c *Challan) TotalQty() types.Money {
	total := types.Zero()
	for _, item := range c.Items {
		total = total.Add(item.Qty)
	}
	return total
}

// Validate implements entity.Validatable.
func (c *Challan) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if len(c.Items) == 0 {
		return apperror.NewValidation("challan must have at least one item").
			WithDetail("field", "items")
	}

	for n, item := range c.Items {
		if strings.TrimSpace(item.Description) == "" {
			return apperror.NewValidation("item description is required").
				WithDetail("field", fmt.Sprintf("items[%d].description", n))
		}
		if !item.Qty.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("field", fmt.Sprintf("items[%d].qty", n))
		}
	}

	if c.ClientStateCode != "" && len(c.ClientStateCode) != 2 {
		return apperror.NewValidation("state code must have two digits").
			WithDetail("field", "clientStateCode")
	}

	return nil
}
