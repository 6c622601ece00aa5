package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/avatargate/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	detailInvalidCredentials = "Invalid credentials"
	detailInvalidToken       = "Invalid or expired token"
)

// classify maps an error to a status and client-facing detail. internal is
// true for failures that are not the client's fault.
func classify(err error) (status int, detail string, internal bool) {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		status, detail = http.StatusBadRequest, "Bad request"
	case errors.Is(err, common.ErrInvalidToken):
		status, detail = http.StatusUnauthorized, detailInvalidToken
	case errors.Is(err, common.ErrorUnauthorized):
		status, detail = http.StatusUnauthorized, detailInvalidCredentials
	case errors.Is(err, common.ErrorNotFound):
		status, detail = http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrRateLimited):
		status, detail = http.StatusTooManyRequests, "Rate limit exceeded"
	default:
		return http.StatusUnauthorized, detailInvalidCredentials, true
	}

	var de *common.DetailError
	if errors.As(err, &de) {
		detail = de.Detail
	}
	return status, detail, false
}

// writeError answers with {"detail": ...}. Internal failures are logged at
// error level and surface to the client as a generic 401.
func (h *handler) writeError(c *gin.Context, err error) {
	status, detail, internal := classify(err)
	if internal {
		h.log(c).Error(c.Request.Context(), "Request failed", "username", c.GetString(subjectKey), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
