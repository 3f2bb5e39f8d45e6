// Package handler holds the helpers shared by the resource handlers.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/doctor-api/internal/middleware"
	"github.com/jwalitptl/doctor-api/internal/model"
	"github.com/jwalitptl/doctor-api/pkg/errors"
	"github.com/jwalitptl/doctor-api/pkg/httputil"
)

// Principal returns the caller stored by the auth middleware, answering
// 401 when there is none.
func Principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		httputil.RespondWithError(c, errors.NewUnauthorized("authentication required", nil))
	}
	return p, ok
}

// ParseID reads a UUID path parameter. A malformed id names no resource,
// so it is answered like an unknown one.
func ParseID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithError(c, errors.NewNotFound(resource, nil))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body, answering 400 (or 413) on failure.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httputil.RespondWithBindError(c, err)
		return false
	}
	return true
}
