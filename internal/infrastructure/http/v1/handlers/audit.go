package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"medstore/internal/core/id"
	"medstore/internal/infrastructure/storage/postgres"
)

// HistoryReader reads the audit trail of one entity.
type HistoryReader interface {
	History(ctx context.Context, orgID id.ID, entityType string, entityID id.ID, limit int) ([]postgres.AuditRecord, error)
}

// AuditHandler exposes audit history per entity.
type AuditHandler struct {
	*BaseHandler
	reader HistoryReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, reader HistoryReader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// History returns a handler for GET /<entities>/:id/history of entityType.
func (h *AuditHandler) History(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, entityID, _, ok := h.ScopeWithID(c)
		if !ok {
			return
		}

		var q historyQuery
		if !h.BindQuery(c, &q) {
			return
		}

		records, err := h.reader.History(c.Request.Context(), orgID, entityType, entityID, q.Limit)
		if err != nil {
			h.Error(c, err)
			return
		}
		if records == nil {
			records = []postgres.AuditRecord{}
		}
		h.OK(c, records)
	}
}
