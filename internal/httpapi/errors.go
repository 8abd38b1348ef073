package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a3tai/sensitive-scan/internal/backend"
	"github.com/a3tai/sensitive-scan/internal/middleware"
	"github.com/a3tai/sensitive-scan/internal/pdf"
	"github.com/a3tai/sensitive-scan/internal/pdf/security"
	"github.com/a3tai/sensitive-scan/internal/scan"
	"github.com/a3tai/sensitive-scan/internal/service"
	"github.com/a3tai/sensitive-scan/internal/storage"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, storage.ErrObjectNotFound),
		errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStorageUnavailable),
		errors.Is(err, service.ErrNoPhraseSource),
		errors.Is(err, backend.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, security.ErrOutsideDirectory):
		return http.StatusForbidden
	case errors.Is(err, pdf.ErrFileTooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pdf.ErrNotPDF),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pdf.ErrEncrypted), scan.IsDocumentFailure(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error":      err.Error(),
		"request_id": middleware.GetRequestID(c),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      msg,
		"request_id": middleware.GetRequestID(c),
	})
}
