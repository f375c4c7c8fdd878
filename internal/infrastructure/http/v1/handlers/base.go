// Package handlers implements the document and numbering endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
)

// BaseHandler holds the binding and response helpers shared by all handlers.
type BaseHandler struct{}

// NewBaseHandler creates a BaseHandler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON decodes the request body into obj. On failure the request is
// aborted with a validation error and false is returned.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery is BindJSON for query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParamID reads the document id from the :id path segment.
func (h *BaseHandler) ParamID(c *gin.Context) (id.ID, bool) {
	raw := c.Param("id")
	docID, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id").WithDetail("id", raw))
		return id.ID{}, false
	}
	return docID, true
}

// Error hands err to middleware.ErrorHandler, which writes the response.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK writes data with status 200.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a freshly numbered document with status 201.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent writes status 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
