// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/apperror"
	appctx "medstore/internal/core/context"
	"medstore/internal/core/id"
	"medstore/internal/infrastructure/http/v1/dto"
	"medstore/internal/infrastructure/http/v1/middleware"
)

const contentTypeJSON = "application/json; charset=utf-8"

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, dto.BindingError(err, "invalid request body"))
		return false
	}
	return true
}

// BindOptionalJSON is BindJSON for endpoints whose body may be omitted.
func (h *BaseHandler) BindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, obj)
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, dto.BindingError(err, "invalid query parameters"))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a path parameter as an id.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := dto.ParseID(param, c.Param(param))
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	return parsed, true
}

// Scope returns the caller's organization and user id.
func (h *BaseHandler) Scope(c *gin.Context) (id.ID, string, bool) {
	orgID, ok := middleware.OrganizationID(c)
	if !ok {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return id.Nil(), "", false
	}
	return orgID, appctx.GetUserID(c.Request.Context()), true
}

// ScopeWithID resolves the caller scope and the :id path parameter.
func (h *BaseHandler) ScopeWithID(c *gin.Context) (orgID, targetID id.ID, actorID string, ok bool) {
	orgID, actorID, ok = h.Scope(c)
	if !ok {
		return id.Nil(), id.Nil(), "", false
	}
	targetID, ok = h.ParseID(c, "id")
	if !ok {
		return id.Nil(), id.Nil(), "", false
	}
	return orgID, targetID, actorID, true
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, dto.OK(data, ""))
}

// Message sends 200 response with data and a message.
func (h *BaseHandler) Message(c *gin.Context, data any, message string) {
	h.respond(c, http.StatusOK, dto.OK(data, message))
}

// Created sends 201 response with data and a message.
func (h *BaseHandler) Created(c *gin.Context, data any, message string) {
	h.respond(c, http.StatusCreated, dto.OK(data, message))
}

// respond writes the envelope and remembers it for idempotent replay.
func (h *BaseHandler) respond(c *gin.Context, status int, env dto.Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	middleware.CompleteIdempotency(c, status, contentTypeJSON, body)
	c.Data(status, contentTypeJSON, body)
}
