package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"alrater/internal/apperr"
	"alrater/pkg/response"

	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrFactorNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// failure renders err as an error envelope. Validation issues are listed
// individually.
func failure(err error) (int, response.Response) {
	status := StatusFor(err)
	var issues []string
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		issues = verr.Issues
	}
	return status, response.Failure(status, apperr.Kind(err), err.Error(), issues)
}

func respondError(c *gin.Context, err error) {
	status, body := failure(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, body)
}
