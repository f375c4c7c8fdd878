package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/domain"
	"billing/internal/infrastructure/http/v1/dto"
)

// DocumentService defines the interface that services must implement for BaseDocumentHandler.
type DocumentService[T any] interface {
	GetByID(ctx context.Context, id id.ID) (T, error)
	GetByNumber(ctx context.Context, number string) (T, error)
	Create(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// BaseDocumentHandler provides generic HTTP handlers for numbered documents.
type BaseDocumentHandler[T any, CreateDTO any, UpdateDTO any, Resp any] struct {
	*BaseHandler
	service DocumentService[T]

	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T)
	mapToDTO     func(entity T) Resp
}

// BaseDocumentHandlerConfig configures the document handler.
type BaseDocumentHandlerConfig[T any, CreateDTO any, UpdateDTO any, Resp any] struct {
	Service      DocumentService[T]
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T)
	MapToDTO     func(entity T) Resp
}

// NewBaseDocumentHandler creates a new base document handler.
func NewBaseDocumentHandler[T any, CreateDTO any, UpdateDTO any, Resp any](
	base *BaseHandler,
	cfg BaseDocumentHandlerConfig[T, CreateDTO, UpdateDTO, Resp],
) *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp] {
	return &BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]{
		BaseHandler:  base,
		service:      cfg.Service,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
		mapToDTO:     cfg.MapToDTO,
	}
}

// List handles GET /{entity}
// A "number" query parameter looks up a single document by its number instead.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) List(c *gin.Context) {
	ctx := c.Request.Context()

	if number := strings.TrimSpace(c.Query("number")); number != "" {
		doc, err := h.service.GetByNumber(ctx, number)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, h.mapToDTO(doc))
		return
	}

	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	res, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(res, h.mapToDTO))
}

// Get handles GET /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Get(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(doc))
}

// Create handles POST /{entity}
// The response carries the assigned number, which may differ from a requested one.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	doc := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.mapToDTO(doc))
}

// Update handles PUT /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.mapUpdateDTO(req, doc)

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(doc))
}

// Delete handles DELETE /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO, Resp]) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
