package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flavorlab/nutrigraph/pkg/server/dto"
	"github.com/flavorlab/nutrigraph/pkg/types"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// writeError writes an error response as JSON
func writeError(c *gin.Context, status int, errCode, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:     errCode,
		Message:   message,
		Code:      status,
		RequestID: c.GetString(RequestIDKey),
	})
}

// writeEngineError maps engine errors onto HTTP statuses. NotConnected is
// a 404 with its own code so callers can tell it apart from a missing id.
func writeEngineError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		writeError(c, http.StatusNotFound, dto.CodeNotFound, err.Error())
	case errors.Is(err, types.ErrNotConnected):
		writeError(c, http.StatusNotFound, dto.CodeNotConnected, err.Error())
	case errors.Is(err, types.ErrInvalidArgument):
		writeError(c, http.StatusBadRequest, dto.CodeInvalidArgs, err.Error())
	default:
		logger.ErrorContext(c.Request.Context(), "Request failed",
			"path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, dto.CodeInternal, "internal error")
	}
}
