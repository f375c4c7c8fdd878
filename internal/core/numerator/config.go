package numerator

import (
	"fmt"
	"strings"
)

// DocumentType identifies a family of documents sharing one number space.
type DocumentType string

const (
	DocInvoice     DocumentType = "invoice"
	DocChallan     DocumentType = "challan"
	DocEstimate    DocumentType = "estimate"
	DocCertificate DocumentType = "certificate"
)

// DocumentTypes lists every numbered document type.
var DocumentTypes = []DocumentType{DocInvoice, DocChallan, DocEstimate, DocCertificate}

// ParseDocumentType converts a case-insensitive name into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	dt := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DocumentTypes {
		if dt == known {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// StyleKind distinguishes rendering variants of FormatStyle.
type StyleKind int

const (
	StyleBare StyleKind = iota
	StyleZeroPadded
)

// FormatStyle describes how a sequence value is rendered after the prefix.
type FormatStyle struct {
	Kind  StyleKind
	Width int
}

// ZeroPadded renders the sequence left-padded with zeros to at least width digits.
// Longer values are never truncated.
func ZeroPadded(width int) FormatStyle {
	return FormatStyle{Kind: StyleZeroPadded, Width: width}
}

// Bare renders the decimal sequence with no padding.
func Bare() FormatStyle {
	return FormatStyle{Kind: StyleBare}
}

func (s FormatStyle) String() string {
	if s.Kind == StyleZeroPadded && s.Width > 0 {
		return fmt.Sprintf("padded(%d)", s.Width)
	}
	return "bare"
}

// FinderStrategy selects how the highest existing sequence is discovered.
type FinderStrategy int

const (
	// FinderPrefixScan reads every number under the prefix and takes the
	// numeric maximum. Robust against out-of-order inserts and manual overrides.
	FinderPrefixScan FinderStrategy = iota

	// FinderLatest looks only at the most recently created document.
	// Cheaper, but misses higher numbers created earlier.
	FinderLatest
)

func (f FinderStrategy) String() string {
	if f == FinderLatest {
		return "latest"
	}
	return "scan"
}

// DefaultMaxAttempts bounds the number of candidates verified per allocation.
const DefaultMaxAttempts = 5

// Config holds numbering configuration for one document type.
type Config struct {
	// Org is the organisation code placed at the start of every number (e.g. "JMD")
	Org string

	// Style controls rendering of the sequence part
	Style FormatStyle

	// Finder selects the highest-sequence discovery strategy
	Finder FinderStrategy

	// Floor is the value auto-generated sequences continue above.
	// Used to carry on from numbers issued before this system existed.
	Floor int64
}

// DefaultConfig returns the numbering configuration used for a document type
// when nothing else is configured.
func DefaultConfig(docType DocumentType, org string) Config {
	cfg := Config{
		Org:    org,
		Style:  Bare(),
		Finder: FinderPrefixScan,
	}
	switch docType {
	case DocChallan:
		cfg.Style = ZeroPadded(3)
	case DocEstimate:
		cfg.Floor = 140
	}
	return cfg
}
