// Package certificate provides the work-completion certificate (WCC) document.
package certificate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/entity"
	"billing/internal/core/types"
)

// Activity is one completed work item.
type Activity struct {
	SrNo     int         `json:"srNo"`
	Activity string      `json:"activity"`
	Qty      types.Money `json:"qty"`
}

// Certificate confirms that the listed work was completed at a client store.
// Its number is the certificate's reference number.
type Certificate struct {
	entity.Document

	StoreName       string     `db:"store_name" json:"storeName"`
	ProjectLocation string     `db:"project_location" json:"projectLocation,omitempty"`
	PONo            string     `db:"po_no" json:"poNo,omitempty"`
	PODate          *time.Time `db:"po_date" json:"poDate,omitempty"`
	GSTIN           string     `db:"gstin" json:"gstin,omitempty"`

	// CompanyName is the issuing company printed on the certificate
	CompanyName string `db:"company_name" json:"companyName"`

	Items entity.Lines[Activity] `db:"items" json:"items"`
}

// New creates an empty certificate dated now.
func New() *Certificate {
	return &Certificate{
		Document: entity.NewDocument(),
		Items:    make(entity.Lines[Activity], 0),
	}
}

// Renumber assigns serial numbers 1..n to the activities in order.
func (c *Certificate) Renumber() {
	for n := range c.Items {
		c.Items[n].SrNo = n + 1
	}
}

// Validate implements entity.Validatable.
func (c *Certificate) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(c.StoreName) == "" {
		return apperror.NewValidation("store name is required").
			WithDetail("field", "storeName")
	}

	if len(c.Items) == 0 {
		return apperror.NewValidation("certificate must list at least one activity").
			WithDetail("field", "items")
	}

	for n, item := range c.Items {
		if strings.TrimSpace(item.Activity) == "" {
			return apperror.NewValidation("activity is required").
				WithDetail("field", fmt.Sprintf("items[%d].activity", n))
		}
		if item.Qty.IsNegative() {
			return apperror.NewValidation("activity quantity cannot be negative").
				WithDetail("field", fmt.Sprintf("items[%d].qty", n))
		}
	}

	return nil
}
