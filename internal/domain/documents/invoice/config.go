package invoice

import "billing/internal/core/numerator"

const (
	// DocumentType is the numbering scope of invoices (JMD/2025-26/12).
	DocumentType = numerator.DocInvoice

	EntityName = "invoice"
)
