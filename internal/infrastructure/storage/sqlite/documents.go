package sqlite

import (
	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
)

// NewInvoiceRepo creates the invoice repository.
func NewInvoiceRepo(txm *TxManager) invoice.Repository {
	return NewDocumentRepo(txm, invoice.DocumentType, func() *invoice.Invoice { return &invoice.Invoice{} })
}

// NewChallanRepo creates the challan repository.
func NewChallanRepo(txm *TxManager) challan.Repository {
	return NewDocumentRepo(txm, challan.DocumentType, func() *challan.Challan { return &challan.Challan{} })
}

// NewEstimateRepo creates the estimate repository.
func NewEstimateRepo(txm *TxManager) estimate.Repository {
	return NewDocumentRepo(txm, estimate.DocumentType, func() *estimate.Estimate { return &estimate.Estimate{} })
}

// NewCertificateRepo creates the certificate repository.
func NewCertificateRepo(txm *TxManager) certificate.Repository {
	return NewDocumentRepo(txm, certificate.DocumentType, func() *certificate.Certificate { return &certificate.Certificate{} })
}
