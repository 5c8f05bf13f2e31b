package core

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondStorageError maps storage errors to HTTP responses.
func respondStorageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidFilename):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid filename")
	case errors.Is(err, ErrNoIdentity):
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "storage failure")
	}
}
