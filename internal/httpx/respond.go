package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tabletap/internal/domain"
)

// Error maps the domain error taxonomy onto HTTP status codes and a uniform
// JSON error body.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidRedemption):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrItemUnavailable):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
