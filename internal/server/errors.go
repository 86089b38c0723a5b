package server

import (
	"errors"
	"net/http"

	companydomain "github.com/bflows/riskproxy/internal/companydata/domain"
	creditdomain "github.com/bflows/riskproxy/internal/creditscore/domain"
	negativedomain "github.com/bflows/riskproxy/internal/negativeevent/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isInvalidRequest(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isInvalidRequest(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, creditdomain.ErrInvalidIdentifier),
		errors.Is(err, companydomain.ErrInvalidIdentifier),
		errors.Is(err, negativedomain.ErrInvalidIdentifier):
		return true
	default:
		return false
	}
}
