package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flavorlab/nutrigraph"
	"github.com/flavorlab/nutrigraph/pkg/server/dto"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// RecordHandler handles single-record writes.
type RecordHandler struct {
	engine nutrigraph.RecordManager
	logger *slog.Logger
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(engine nutrigraph.RecordManager, logger *slog.Logger) *RecordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordHandler{engine: engine, logger: logger}
}

// UpsertEntity handles PUT /api/v1/entities
func (h *RecordHandler) UpsertEntity(c *gin.Context) {
	var e types.Entity
	if err := c.ShouldBindJSON(&e); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	if len(e.ID) > dto.MaxIDLength {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, dto.ErrIDTooLong.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.UpsertEntity(ctx, e); err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	h.logger.InfoContext(ctx, "Entity upserted", "id", e.ID)
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"id": e.ID}})
}

// UpsertRelationship handles PUT /api/v1/relationships
func (h *RecordHandler) UpsertRelationship(c *gin.Context) {
	var r types.Relationship
	if err := c.ShouldBindJSON(&r); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	if len(r.ID) > dto.MaxIDLength {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, dto.ErrIDTooLong.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.UpsertRelationship(ctx, r); err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	h.logger.InfoContext(ctx, "Relationship upserted", "id", r.ID,
		"source_id", r.SourceID, "target_id", r.TargetID)
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"id": r.ID}})
}

// DeleteEntity handles DELETE /api/v1/entities/:id
func (h *RecordHandler) DeleteEntity(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.DeleteEntity(c.Request.Context(), id); err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRelationship handles DELETE /api/v1/relationships/:id
func (h *RecordHandler) DeleteRelationship(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.DeleteRelationship(c.Request.Context(), id); err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
