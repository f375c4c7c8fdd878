package estimate

import "billing/internal/core/numerator"

const (
	// DocumentType is the numbering scope of estimates.
	// Estimates continue from the paper series, so the first one of a year is 141.
	DocumentType = numerator.DocEstimate

	EntityName = "estimate"
)
