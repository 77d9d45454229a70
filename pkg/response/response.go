// Package response writes the API's JSON envelope.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/logging"
)

// Response represents a standard API response
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response. err is recorded on the context for the
// access log and may be nil.
func Error(c *gin.Context, code int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message, nil)
}

// FromError maps err onto a status: validation errors are the caller's
// fault, upstream errors are a bad gateway and anything else is ours
func FromError(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: ve.Error(),
			Field:   ve.Field,
		})
	case apperr.IsUpstream(err):
		Error(c, http.StatusBadGateway, "location recorder unavailable", err)
	case apperr.IsConfiguration(err):
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("configuration error")
		Error(c, http.StatusInternalServerError, err.Error(), err)
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		Error(c, http.StatusInternalServerError, "internal error", err)
	}
}
