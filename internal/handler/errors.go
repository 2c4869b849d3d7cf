package handler

import (
	"errors"
	"net/http"

	"medshare-backend/internal/service"
	"medshare-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps workflow failures onto HTTP statuses. Conflicts
// (duplicates, lost claim races, already-processed requests) serve 400
// to match the original API contract.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSelfRequest),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrNotAvailable),
		errors.Is(err, service.ErrAlreadyProcessed):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Server error"))
	}
}
