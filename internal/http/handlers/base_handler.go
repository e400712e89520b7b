// README: Base handler utilities (JSON helpers, id parsing, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/apperr"
	"rides/internal/modules/user"
	"rides/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps error kinds to status codes. Unknown errors are
// attached to the context for the access log and answered with a bare 500.
func writeServiceError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, user.ErrBadCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case apperr.IsOneOf(err, apperr.ErrInvalidTransition, apperr.ErrConflict):
		status = http.StatusConflict
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, status, errorResponse{Error: err.Error(), Kind: apperr.KindName(err)})
}

// pathID parses a UUID path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	id, err := types.ParseID(c.Param(name))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// bodyID parses a UUID taken from a request body field.
func bodyID(c *gin.Context, field, raw string) (types.ID, bool) {
	if raw == "" {
		writeError(c, http.StatusBadRequest, "missing "+field)
		return "", false
	}
	id, err := types.ParseID(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+field)
		return "", false
	}
	return id, true
}

// queryID parses an optional UUID query parameter. Absent yields nil.
func queryID(c *gin.Context, name string) (*types.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := types.ParseID(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
