package document_repo

import (
	"billing/internal/domain/documents/certificate"
	"billing/internal/domain/documents/challan"
	"billing/internal/domain/documents/estimate"
	"billing/internal/domain/documents/invoice"
	"billing/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	challansTable     = "doc_challans"
	estimatesTable    = "doc_estimates"
	certificatesTable = "doc_certificates"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable,
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

// ChallanRepo implements challan.Repository.
type ChallanRepo struct {
	*BaseDocumentRepo[*challan.Challan]
}

// NewChallanRepo creates a new challan repository.
func NewChallanRepo(txm *postgres.TxManager) *ChallanRepo {
	return &ChallanRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			challansTable,
			postgres.ExtractDBColumns[challan.Challan](),
			func() *challan.Challan { return &challan.Challan{} },
		),
	}
}

// EstimateRepo implements estimate.Repository.
type EstimateRepo struct {
	*BaseDocumentRepo[*estimate.Estimate]
}

// NewEstimateRepo creates a new estimate repository.
func NewEstimateRepo(txm *postgres.TxManager) *EstimateRepo {
	return &EstimateRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			estimatesTable,
			postgres.ExtractDBColumns[estimate.Estimate](),
			func() *estimate.Estimate { return &estimate.Estimate{} },
		),
	}
}

// CertificateRepo implements certificate.Repository.
type CertificateRepo struct {
	*BaseDocumentRepo[*certificate.Certificate]
}

// NewCertificateRepo creates a new certificate repository.
func NewCertificateRepo(txm *postgres.TxManager) *CertificateRepo {
	return &CertificateRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			certificatesTable,
			postgres.ExtractDBColumns[certificate.Certificate](),
			func() *certificate.Certificate { return &certificate.Certificate{} },
		),
	}
}

// Ensure compile-time interface compliance.
var (
	_ invoice.Repository     = (*InvoiceRepo)(nil)
	_ challan.Repository     = (*ChallanRepo)(nil)
	_ estimate.Repository    = (*EstimateRepo)(nil)
	_ certificate.Repository = (*CertificateRepo)(nil)
)
