package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hotelier/internal/app/locks"
	"hotelier/internal/app/services/auth"
	"hotelier/internal/domain/shared/fault"
	"hotelier/internal/infra/storage/s3"
)

// respondError maps classified failures onto status codes; anything
// unclassified is logged and hidden behind a 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "route", c.FullPath(), "error", err, "request_id", c.GetString("request_id"))
		}
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	if errors.Is(err, locks.ErrBusy) {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, s3.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	switch fault.Kind(err) {
	case fault.ErrValidation:
		return http.StatusBadRequest
	case fault.ErrNotFound:
		return http.StatusNotFound
	case fault.ErrAuthorization:
		return http.StatusForbidden
	case fault.ErrConflict:
		return http.StatusConflict
	case fault.ErrState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
