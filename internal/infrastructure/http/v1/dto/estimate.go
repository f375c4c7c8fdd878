package dto

import (
	"billing/internal/core/types"
	"billing/internal/domain/documents/estimate"
)

// EstimateItemRequest is one quoted line. TaxRate is a percentage.
type EstimateItemRequest struct {
	Description string      `json:"description" binding:"required"`
	HSNCode     string      `json:"hsnCode"`
	Unit        string      `json:"unit"`
	Qty         types.Money `json:"qty"`
	Rate        types.Money `json:"rate"`
	TaxRate     types.Money `json:"taxRate"`
}

// CreateEstimateRequest is the body of POST /estimates.
type CreateEstimateRequest struct {
	DocumentRequest

	ClientID       string                `json:"clientId"`
	BillingAddress string                `json:"billingAddress"`
	GSTIN          string                `json:"gstin"`
	Attention      string                `json:"attention"`
	Subject        string                `json:"subject"`
	Items          []EstimateItemRequest `json:"items" binding:"dive"`
	Status         estimate.Status       `json:"status"`
	Notes          string                `json:"notes"`
}

// ToEntity converts the request into a new estimate.
func (r CreateEstimateRequest) ToEntity() *estimate.Estimate {
	doc := estimate.New()
	r.applyTo(doc)
	return doc
}

func (r CreateEstimateRequest) applyTo(doc *estimate.Estimate) {
	r.DocumentRequest.ApplyTo(&doc.Document)
	doc.ClientID = r.ClientID
	doc.BillingAddress = r.BillingAddress
	doc.GSTIN = r.GSTIN
	doc.Attention = r.Attention
	doc.Subject = r.Subject
	doc.Notes = r.Notes
	if r.Status != "" {
		doc.Status = r.Status
	}

	doc.Items = doc.Items[:0]
	for _, item := range r.Items {
		doc.Items = append(doc.Items, estimate.Item{
			Description: item.Description,
			HSNCode:     item.HSNCode,
			Unit:        item.Unit,
			Qty:         item.Qty,
			Rate:        item.Rate,
			TaxRate:     item.TaxRate,
		})
	}
}

// UpdateEstimateRequest is the body of PUT /estimates/:id.
type UpdateEstimateRequest struct {
	CreateEstimateRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo replaces the editable fields of doc.
func (r UpdateEstimateRequest) ApplyTo(doc *estimate.Estimate) {
	r.applyTo(doc)
	doc.Version = r.Version
}

// EstimateResponse is the API view of an estimate.
type EstimateResponse struct {
	DocumentResponse

	ClientID       string          `json:"clientId,omitempty"`
	BillingAddress string          `json:"billingAddress,omitempty"`
	GSTIN          string          `json:"gstin,omitempty"`
	Attention      string          `json:"attention,omitempty"`
	Subject        string          `json:"subject,omitempty"`
	Items          []estimate.Item `json:"items"`
	SubTotal       types.Money     `json:"subTotal"`
	TaxAmount      types.Money     `json:"taxAmount"`
	Total          types.Money     `json:"total"`
	Status         estimate.Status `json:"status"`
	Notes          string          `json:"notes,omitempty"`
}

// FromEstimate creates the response view of doc.
func FromEstimate(doc *estimate.Estimate) EstimateResponse {
	return EstimateResponse{
		DocumentResponse: FromDocument(doc.Document),
		ClientID:         doc.ClientID,
		BillingAddress:   doc.BillingAddress,
		GSTIN:            doc.GSTIN,
		Attention:        doc.Attention,
		Subject:          doc.Subject,
		Items:            doc.Items,
		SubTotal:         doc.SubTotal,
		TaxAmount:        doc.TaxAmount,
		Total:            doc.Total,
		Status:           doc.Status,
		Notes:            doc.Notes,
	}
}
