package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/core/numerator"
	"billing/internal/infrastructure/http/v1/dto"
)

// NumberingService is the part of the numerator service exposed over HTTP.
type NumberingService interface {
	FiscalYear(asOf time.Time) string
	PrefixFor(docType numerator.DocumentType, asOf time.Time) (string, error)
	Config(docType numerator.DocumentType) (numerator.Config, error)
	Allocate(ctx context.Context, req numerator.Request) (string, error)
}

// NumberingHandler exposes fiscal-year lookup and next-number previews.
type NumberingHandler struct {
	*BaseHandler
	service NumberingService
	now     func() time.Time
}

// NewNumberingHandler creates a new numbering handler.
func NewNumberingHandler(base *BaseHandler, service NumberingService) *NumberingHandler {
	return &NumberingHandler{BaseHandler: base, service: service, now: time.Now}
}

func (h *NumberingHandler) parseDate(c *gin.Context, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return h.now(), true
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "date"))
		return time.Time{}, false
	}
	return t, true
}

// FiscalYear handles GET /numbering/fiscal-year?date=YYYY-MM-DD
func (h *NumberingHandler) FiscalYear(c *gin.Context) {
	asOf, ok := h.parseDate(c, c.Query("date"))
	if !ok {
		return
	}

	h.OK(c, dto.FiscalYearResponse{
		Date:       dto.Date{Time: asOf},
		FiscalYear: h.service.FiscalYear(asOf),
	})
}

// Next handles GET /numbering/:type/next
// The returned number is free right now but not reserved.
func (h *NumberingHandler) Next(c *gin.Context) {
	docType, err := numerator.ParseDocumentType(c.Param("type"))
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "type"))
		return
	}

	var q dto.NextNumberQuery
	if !h.BindQuery(c, &q) {
		return
	}
	asOf, ok := h.parseDate(c, q.Date)
	if !ok {
		return
	}

	cfg, err := h.service.Config(docType)
	if err != nil {
		h.Error(c, err)
		return
	}
	prefix, err := h.service.PrefixFor(docType, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	explicit := strings.TrimSpace(q.Number)
	number, err := h.service.Allocate(c.Request.Context(), numerator.Request{
		DocumentType:  docType,
		AsOf:          asOf,
		Explicit:      explicit,
		CurrentNumber: strings.TrimSpace(q.Current),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.NextNumberResponse{
		DocumentType: string(docType),
		Prefix:       prefix,
		Number:       number,
		Style:        cfg.Style.String(),
		Finder:       cfg.Finder.String(),
	}
	if explicit != "" {
		accepted := number == explicit
		resp.ExplicitAccepted = &accepted
	}
	h.OK(c, resp)
}
