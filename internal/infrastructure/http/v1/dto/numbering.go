package dto

// FiscalYearResponse answers GET /numbering/fiscal-year.
type FiscalYearResponse struct {
	Date       Date   `json:"date"`
	FiscalYear string `json:"fiscalYear"`
}

// NextNumberQuery is the query string of GET /numbering/:type/next.
// Number is an optional explicit number to check; Current is the number the
// edited document already holds.
type NextNumberQuery struct {
	Date    string `form:"date"`
	Number  string `form:"number"`
	Current string `form:"current"`
}

// NextNumberResponse previews the number the next document would get.
// The number is not reserved.
type NextNumberResponse struct {
	DocumentType string `json:"documentType"`
	Prefix       string `json:"prefix"`
	Number       string `json:"number"`
	Style        string `json:"style"`
	Finder       string `json:"finder"`

	// ExplicitAccepted is set when Number was requested explicitly
	ExplicitAccepted *bool `json:"explicitAccepted,omitempty"`
}
