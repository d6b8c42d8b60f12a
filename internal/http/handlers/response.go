package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/http/middleware"
)

// ErrorResponse is the envelope of every non-2xx answer. Clients branch on
// Code, then Reason when present; Message is safe to show to users.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_usable"`
	Reason    string `json:"reason,omitempty" example:"expired"`
	Message   string `json:"message" example:"This invite has expired. Ask for a new link."`
}

// fail aborts with an ErrorResponse. 5xx answers are also logged.
func fail(c *gin.Context, status int, code, msg string) {
	failReason(c, status, code, "", msg)
}

func failReason(c *gin.Context, status int, code, reason, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("route", c.FullPath()).
			Msg(msg)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Reason:    reason,
		Message:   msg,
	})
}

// Fail lets the router answer fallbacks with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
