package dto

import (
	"billing/internal/core/types"
	"billing/internal/domain/documents/challan"
)

// ChallanItemRequest is one delivered line.
type ChallanItemRequest struct {
	Description string      `json:"description" binding:"required"`
	Size        string      `json:"size"`
	HSN         string      `json:"hsn"`
	Qty         types.Money `json:"qty"`
}

// CreateChallanRequest is the body of POST /challans.
type CreateChallanRequest struct {
	DocumentRequest

	OrderNo         string               `json:"orderNo"`
	OrderDate       *Date                `json:"orderDate"`
	ClientAddress   string               `json:"clientAddress"`
	ClientGST       string               `json:"clientGst"`
	ClientState     string               `json:"clientState"`
	ClientStateCode string               `json:"clientStateCode"`
	ContactPerson   string               `json:"contactPerson"`
	Items           []ChallanItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts the request into a new challan.
func (r CreateChallanRequest) ToEntity() *challan.Challan {
	doc := challan.New()
	r.applyTo(doc)
	return doc
}

func (r CreateChallanRequest) applyTo(doc *challan.Challan) {
	r.DocumentRequest.ApplyTo(&doc.Document)
	doc.OrderNo = r.OrderNo
	doc.OrderDate = r.OrderDate.Ptr()
	doc.ClientAddress = r.ClientAddress
	doc.ClientGST = r.ClientGST
	doc.ClientState = r.ClientState
	doc.ClientStateCode = r.ClientStateCode
	doc.ContactPerson = r.ContactPerson

	doc.Items = doc.Items[:0]
	for _, item := range r.Items {
		doc.Items = append(doc.Items, challan.Item(item))
	}
}

// UpdateChallanRequest is the body of PUT /challans/:id.
type UpdateChallanRequest struct {
	CreateChallanRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo replaces the editable fields of doc.
func (r UpdateChallanRequest) ApplyTo(doc *challan.Challan) {
	r.applyTo(doc)
	doc.Version = r.Version
}

// ChallanResponse is the API view of a challan.
type ChallanResponse struct {
	DocumentResponse

	OrderNo         string         `json:"orderNo,omitempty"`
	OrderDate       *Date          `json:"orderDate,omitempty"`
	ClientAddress   string         `json:"clientAddress,omitempty"`
	ClientGST       string         `json:"clientGst,omitempty"`
	ClientState     string         `json:"clientState,omitempty"`
	ClientStateCode string         `json:"clientStateCode,omitempty"`
	ContactPerson   string         `json:"contactPerson,omitempty"`
	Items           []challan.Item `json:"items"`
	TotalQty        types.Money    `json:"totalQty"`
}

// FromChallan creates the response view of doc.
func FromChallan(doc *challan.Challan) ChallanResponse {
	return ChallanResponse{
		DocumentResponse: FromDocument(doc.Document),
		OrderNo:          doc.OrderNo,
		OrderDate:        DateFrom(doc.OrderDate),
		ClientAddress:    doc.ClientAddress,
		ClientGST:        doc.ClientGST,
		ClientState:      doc.ClientState,
		ClientStateCode:  doc.ClientStateCode,
		ContactPerson:    doc.ContactPerson,
		Items:            doc.Items,
		TotalQty:         doc.TotalQty(),
	}
}
