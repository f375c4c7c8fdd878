// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"billing/internal/core/entity"
	"billing/internal/domain"
)

// DateLayout is the calendar-date form used in requests and query strings.
const DateLayout = "2006-01-02"

// Date is a calendar date that also accepts full RFC 3339 timestamps.
type Date struct {
	time.Time
}

// ParseDate parses "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// Ptr returns nil for a zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// DateFrom wraps an optional time for responses.
func DateFrom(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// --- List ---

// ListQuery is the query string accepted by document list endpoints.
type ListQuery struct {
	Search         string `form:"search"`
	NumberPrefix   string `form:"numberPrefix"`
	IncludeDeleted bool   `form:"includeDeleted"`
	DateFrom       string `form:"dateFrom"`
	DateTo         string `form:"dateTo"`
	OrderBy        string `form:"orderBy"`
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a repository filter.
func (q ListQuery) ToFilter() (domain.ListFilter, error) {
	f := domain.DefaultListFilter()
	f.Search = strings.TrimSpace(q.Search)
	f.NumberPrefix = q.NumberPrefix
	f.IncludeDeleted = q.IncludeDeleted
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset

	if q.DateFrom != "" {
		t, err := ParseDate(q.DateFrom)
		if err != nil {
			return f, err
		}
		f.DateFrom = &t
	}
	if q.DateTo != "" {
		t, err := ParseDate(q.DateTo)
		if err != nil {
			return f, err
		}
		f.DateTo = &t
	}
	return f, nil
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a repository page with fn.
func NewListResponse[E any, T any](res domain.ListResult[E], fn func(E) T) ListResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, e := range res.Items {
		items = append(items, fn(e))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- Documents ---

// DocumentRequest holds the fields every document accepts.
// A blank Number asks the server to assign one.
type DocumentRequest struct {
	Number     string `json:"number"`
	Date       Date   `json:"date"`
	ClientName string `json:"clientName" binding:"required"`
	Comment    string `json:"comment"`
}

// ApplyTo copies the common fields onto d. A zero date keeps d's date.
func (r DocumentRequest) ApplyTo(d *entity.Document) {
	d.Number = strings.TrimSpace(r.Number)
	if !r.Date.IsZero() {
		d.Date = r.Date.Time
	}
	d.ClientName = r.ClientName
	d.Comment = r.Comment
}

// DocumentResponse contains document fields.
type DocumentResponse struct {
	ID           string    `json:"id"`
	Number       string    `json:"number"`
	Date         Date      `json:"date"`
	ClientName   string    `json:"clientName"`
	Comment      string    `json:"comment,omitempty"`
	DeletionMark bool      `json:"deletionMark"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID.String(),
		Number:       d.Number,
		Date:         Date{Time: d.Date},
		ClientName:   d.ClientName,
		Comment:      d.Comment,
		DeletionMark: d.DeletionMark,
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
