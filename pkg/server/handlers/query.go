package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flavorlab/nutrigraph"
	"github.com/flavorlab/nutrigraph/pkg/server/dto"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// QueryHandler serves the read-only engine operations.
type QueryHandler struct {
	engine nutrigraph.Engine
	logger *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(engine nutrigraph.Engine, logger *slog.Logger) *QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{engine: engine, logger: logger}
}

// SearchEntities handles POST /api/v1/entities/search
func (h *QueryHandler) SearchEntities(c *gin.Context) {
	var req dto.EntitySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	q, err := req.ToQuery()
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}

	res, err := h.engine.SearchEntities(c.Request.Context(), q)
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SearchRelationships handles POST /api/v1/relationships/search
func (h *QueryHandler) SearchRelationships(c *gin.Context) {
	var req dto.RelationshipSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}

	res, err := h.engine.SearchRelationships(c.Request.Context(), req.ToQuery())
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetEntity handles GET /api/v1/entities/:id
func (h *QueryHandler) GetEntity(c *gin.Context) {
	e, err := h.engine.GetEntity(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// GetRelationship handles GET /api/v1/relationships/:id
func (h *QueryHandler) GetRelationship(c *gin.Context) {
	r, err := h.engine.GetRelationship(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetConnections handles GET /api/v1/entities/:id/connections
func (h *QueryHandler) GetConnections(c *gin.Context) {
	var q dto.ConnectionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	res, err := h.engine.GetEntityConnections(c.Request.Context(), c.Param("id"),
		types.Direction(q.Direction), splitValues(q.Types))
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// FindPath handles GET /api/v1/path
func (h *QueryHandler) FindPath(c *gin.Context) {
	var q dto.PathQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	path, err := h.engine.FindPath(ctx, q.Source, q.Target, q.MaxDepth, types.Direction(q.Direction))
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}

	resp := dto.PathResponse{Path: path, Entities: make([]types.Entity, 0, len(path.EntityIDs))}
	for _, id := range path.EntityIDs {
		e, err := h.engine.GetEntity(ctx, id)
		if err != nil {
			// Deleted between the traversal and this lookup.
			continue
		}
		resp.Entities = append(resp.Entities, *e)
	}
	c.JSON(http.StatusOK, resp)
}

// GetStats handles GET /api/v1/stats and GET /api/v1/stats/:kind
func (h *QueryHandler) GetStats(c *gin.Context) {
	s, err := h.engine.GetStatistics(c.Request.Context(), types.RecordKind(c.Param("kind")))
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ListTypes handles GET /api/v1/types
func (h *QueryHandler) ListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"relationship_types": h.engine.RelationshipTypes(c.Request.Context())})
}

// Suggest handles GET /api/v1/suggest
func (h *QueryHandler) Suggest(c *gin.Context) {
	var q dto.SuggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, dto.CodeInvalidRequest, err.Error())
		return
	}
	out, err := h.engine.Suggest(c.Request.Context(), q.Q, types.RecordKind(q.Kind),
		types.Classification(q.Classification), q.Limit)
	if err != nil {
		writeEngineError(c, h.logger, err)
		return
	}
	if out == nil {
		out = []types.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}

// ListPillars handles GET /api/v1/pillars
func (h *QueryHandler) ListPillars(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pillars": h.engine.Pillars()})
}

// splitValues accepts both repeated and comma separated query values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
