package dto

import (
	"billing/internal/core/types"
	"billing/internal/domain/documents/certificate"
)

// ActivityRequest is one completed work item. Serial numbers are assigned by the server.
type ActivityRequest struct {
	Activity string      `json:"activity" binding:"required"`
	Qty      types.Money `json:"qty"`
}

// CreateCertificateRequest is the body of POST /certificates.
type CreateCertificateRequest struct {
	DocumentRequest

	StoreName       string            `json:"storeName" binding:"required"`
	ProjectLocation string            `json:"projectLocation"`
	PONo            string            `json:"poNo"`
	PODate          *Date             `json:"poDate"`
	GSTIN           string            `json:"gstin"`
	CompanyName     string            `json:"companyName"`
	Items           []ActivityRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts the request into a new certificate.
func (r CreateCertificateRequest) ToEntity() *certificate.Certificate {
	doc := certificate.New()
	r.applyTo(doc)
	return doc
}

func (r CreateCertificateRequest) applyTo(doc *certificate.Certificate) {
	r.DocumentRequest.ApplyTo(&doc.Document)
	doc.StoreName = r.StoreName
	doc.ProjectLocation = r.ProjectLocation
	doc.PONo = r.PONo
	doc.PODate = r.PODate.Ptr()
	doc.GSTIN = r.GSTIN
	doc.CompanyName = r.CompanyName

	doc.Items = doc.Items[:0]
	for _, item := range r.Items {
		doc.Items = append(doc.Items, certificate.Activity{
			Activity: item.Activity,
			Qty:      item.Qty,
		})
	}
}

// UpdateCertificateRequest is the body of PUT /certificates/:id.
type UpdateCertificateRequest struct {
	CreateCertificateRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo replaces the editable fields of doc.
func (r UpdateCertificateRequest) ApplyTo(doc *certificate.Certificate) {
	r.applyTo(doc)
	doc.Version = r.Version
}

// CertificateResponse is the API view of a work-completion certificate.
type CertificateResponse struct {
	DocumentResponse

	StoreName       string                 `json:"storeName"`
	ProjectLocation string                 `json:"projectLocation,omitempty"`
	PONo            string                 `json:"poNo,omitempty"`
	PODate          *Date                  `json:"poDate,omitempty"`
	GSTIN           string                 `json:"gstin,omitempty"`
	CompanyName     string                 `json:"companyName"`
	Items           []certificate.Activity `json:"items"`
}

// FromCertificate creates the response view of doc.
func FromCertificate(doc *certificate.Certificate) CertificateResponse {
	return CertificateResponse{
		DocumentResponse: FromDocument(doc.Document),
		StoreName:        doc.StoreName,
		ProjectLocation:  doc.ProjectLocation,
		PONo:             doc.PONo,
		PODate:           DateFrom(doc.PODate),
		GSTIN:            doc.GSTIN,
		CompanyName:      doc.CompanyName,
		Items:            doc.Items,
	}
}
