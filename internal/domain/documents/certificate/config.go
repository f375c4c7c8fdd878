package certificate

import "billing/internal/core/numerator"

const (
	// DocumentType is the numbering scope of work-completion certificates.
	DocumentType = numerator.DocCertificate

	EntityName = "certificate"
)
