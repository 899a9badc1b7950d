package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"live-poll-service/internal/domain"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Body{Success: false, Error: msg})
}

// commandError writes err with the status matching its kind.
func commandError(c *gin.Context, err error) {
	fail(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindReference:
		if errors.Is(err, domain.ErrNoActiveQuestion) {
			return http.StatusConflict
		}
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
