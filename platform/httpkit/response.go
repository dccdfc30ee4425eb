package httpkit

import (
	"errors"
	"net/http"

	"vhc_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Error writes a plain error body.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK writes payload with status 200.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// HandleError writes the response for err and reports whether there was one.
// Untyped errors become a 500 and are attached to the gin context for the request log.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus() >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(appErr.HTTPStatus(), ErrorResponse{
			Error:     appErr.Message,
			Code:      string(appErr.Kind),
			Details:   appErr.Details,
			Retryable: appErr.Retryable(),
		})
		return true
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	return true
}
