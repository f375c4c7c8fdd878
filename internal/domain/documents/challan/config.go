package challan

import "billing/internal/core/numerator"

const (
	// DocumentType is the numbering scope of delivery challans.
	// Challan numbers are zero padded to three digits (JMD/2025-26/007).
	DocumentType = numerator.DocChallan

	EntityName = "challan"
)
