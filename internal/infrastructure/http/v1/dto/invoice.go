package dto

import (
	"billing/internal/core/types"
	"billing/internal/domain/documents/invoice"
)

// InvoiceItemRequest is one billed line. Amount is computed server-side.
type InvoiceItemRequest struct {
	Description string      `json:"description" binding:"required"`
	Qty         types.Money `json:"qty"`
	Rate        types.Money `json:"rate"`
}

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	DocumentRequest

	ClientID  string               `json:"clientId"`
	PONumber  string               `json:"poNumber"`
	ChallanNo string               `json:"challanNo"`
	Items     []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Tax       types.Money          `json:"tax"`
	Status    invoice.Status       `json:"status"`
	DueDate   *Date                `json:"dueDate"`
}

// ToEntity converts the request into a new invoice.
func (r CreateInvoiceRequest) ToEntity() *invoice.Invoice {
	doc := invoice.New()
	r.applyTo(doc)
	return doc
}

func (r CreateInvoiceRequest) applyTo(doc *invoice.Invoice) {
	r.DocumentRequest.ApplyTo(&doc.Document)
	doc.ClientID = r.ClientID
	doc.PONumber = r.PONumber
	doc.ChallanNo = r.ChallanNo
	doc.Tax = r.Tax
	if r.Status != "" {
		doc.Status = r.Status
	}
	doc.DueDate = r.DueDate.Ptr()

	doc.Items = doc.Items[:0]
	for _, item := range r.Items {
		doc.Items = append(doc.Items, invoice.Item{
			Description: item.Description,
			Qty:         item.Qty,
			Rate:        item.Rate,
		})
	}
}

// UpdateInvoiceRequest is the body of PUT /invoices/:id.
type UpdateInvoiceRequest struct {
	CreateInvoiceRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo replaces the editable fields of doc.
func (r UpdateInvoiceRequest) ApplyTo(doc *invoice.Invoice) {
	r.applyTo(doc)
	doc.Version = r.Version
}

// InvoiceResponse is the API view of an invoice.
type InvoiceResponse struct {
	DocumentResponse

	ClientID  string         `json:"clientId,omitempty"`
	PONumber  string         `json:"poNumber,omitempty"`
	ChallanNo string         `json:"challanNo,omitempty"`
	Items     []invoice.Item `json:"items"`
	Subtotal  types.Money    `json:"subtotal"`
	Tax       types.Money    `json:"tax"`
	Total     types.Money    `json:"total"`
	Status    invoice.Status `json:"status"`
	DueDate   *Date          `json:"dueDate,omitempty"`
}

// FromInvoice creates the response view of doc.
func FromInvoice(doc *invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		DocumentResponse: FromDocument(doc.Document),
		ClientID:         doc.ClientID,
		PONumber:         doc.PONumber,
		ChallanNo:        doc.ChallanNo,
		Items:            doc.Items,
		Subtotal:         doc.Subtotal,
		Tax:              doc.Tax,
		Total:            doc.Total,
		Status:           doc.Status,
		DueDate:          DateFrom(doc.DueDate),
	}
}
