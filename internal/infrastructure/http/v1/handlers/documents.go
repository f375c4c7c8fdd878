package handlers

import (
	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
	"billing/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves /invoices.
type InvoiceHandler = BaseDocumentHandler[*invoice.Invoice, dto.CreateInvoiceRequest, dto.UpdateInvoiceRequest, dto.InvoiceResponse]

// NewInvoiceHandler creates the invoice handler.
func NewInvoiceHandler(base *BaseHandler, service DocumentService[*invoice.Invoice]) *InvoiceHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*invoice.Invoice, dto.CreateInvoiceRequest, dto.UpdateInvoiceRequest, dto.InvoiceResponse]{
		Service:      service,
		MapCreateDTO: dto.CreateInvoiceRequest.ToEntity,
		MapUpdateDTO: dto.UpdateInvoiceRequest.ApplyTo,
		MapToDTO:     dto.FromInvoice,
	})
}

// ChallanHandler serves /challans.
type ChallanHandler = BaseDocumentHandler[*challan.Challan, dto.CreateChallanRequest, dto.UpdateChallanRequest, dto.ChallanResponse]

// NewChallanHandler creates the delivery challan handler.
func NewChallanHandler(base *BaseHandler, service DocumentService[*challan.Challan]) *ChallanHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*challan.Challan, dto.CreateChallanRequest, dto.UpdateChallanRequest, dto.ChallanResponse]{
		Service:      service,
		MapCreateDTO: dto.CreateChallanRequest.ToEntity,
		MapUpdateDTO: dto.UpdateChallanRequest.ApplyTo,
		MapToDTO:     dto.FromChallan,
	})
}

// EstimateHandler serves /estimates.
type EstimateHandler = BaseDocumentHandler[*estimate.Estimate, dto.CreateEstimateRequest, dto.UpdateEstimateRequest, dto.EstimateResponse]

// NewEstimateHandler creates the estimate handler.
func NewEstimateHandler(base *BaseHandler, service DocumentService[*estimate.Estimate]) *EstimateHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*estimate.Estimate, dto.CreateEstimateRequest, dto.UpdateEstimateRequest, dto.EstimateResponse]{
		Service:      service,
		MapCreateDTO: dto.CreateEstimateRequest.ToEntity,
		MapUpdateDTO: dto.UpdateEstimateRequest.ApplyTo,
		MapToDTO:     dto.FromEstimate,
	})
}

// CertificateHandler serves /certificates.
type CertificateHandler = BaseDocumentHandler[*certificate.Certificate, dto.CreateCertificateRequest, dto.UpdateCertificateRequest, dto.CertificateResponse]

// NewCertificateHandler creates the work-completion certificate handler.
func NewCertificateHandler(base *BaseHandler, service DocumentService[*certificate.Certificate]) *CertificateHandler {
	return NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*certificate.Certificate, dto.CreateCertificateRequest, dto.UpdateCertificateRequest, dto.CertificateResponse]{
		Service:      service,
		MapCreateDTO: dto.CreateCertificateRequest.ToEntity,
		MapUpdateDTO: dto.UpdateCertificateRequest.ApplyTo,
		MapToDTO:     dto.FromCertificate,
	})
}
