package core

import (
	"errors"
	"fmt"
	"log"
	"math"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	uploadFormField = "formFile"
	// multipartOverhead is allowed on top of the file size limit for boundaries and part headers.
	multipartOverhead = 1 << 20
)

// uploadBodyLimit is the request body cap for a file limit, saturating at math.MaxInt64.
func uploadBodyLimit(fileLimit int64) int64 {
	if fileLimit > math.MaxInt64-multipartOverhead {
		return math.MaxInt64
	}
	return fileLimit + multipartOverhead
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, opts StorageOptions, gate *BasicAuthGate, files *UserFileStorage, metrics *StorageMetrics) *gin.Engine {
	r := gin.Default()

	// Global middleware: origin/CORS -> routes; file routes additionally require Basic auth.
	r.Use(OriginRefererMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/simplefile")
	api.Use(BasicAuthMiddleware(gate))
	{
		api.GET("/sha256", func(c *gin.Context) {
			ctx := c.Request.Context()
			filename, ok := requireFilename(c, files)
			if !ok {
				return
			}
			if !files.Exists(ctx, filename) {
				respondError(c, http.StatusNotFound, "NOT_FOUND", "file not found")
				return
			}
			sum, err := files.CalculateSHA256(ctx, filename)
			if err != nil {
				log.Printf("[storage] hash %s failed: %v", filename, err)
				respondStorageError(c, err)
				return
			}
			if sum == "" {
				// Removed between the existence check and hashing.
				respondError(c, http.StatusNotFound, "NOT_FOUND", "file not found")
				return
			}
			recordMetric(c, metrics, OpHash, 0)
			c.JSON(http.StatusOK, gin.H{"filename": filename, "sha256": sum})
		})

		api.POST("/upload", func(c *gin.Context) {
			contentType := c.GetHeader("Content-Type")
			mediaType, params, err := mime.ParseMediaType(contentType)
			if err != nil || !isFormMediaType(mediaType) {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Form content type required.")
				return
			}
			if mediaType != "multipart/form-data" || strings.TrimSpace(params["boundary"]) == "" {
				respondError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "multipart boundary required")
				return
			}

			limitMsg := fmt.Sprintf("File size limit of %d bytes reached.", opts.FileSizeLimitBytes)
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploadBodyLimit(opts.FileSizeLimitBytes))
			fh, err := c.FormFile(uploadFormField)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", limitMsg)
					return
				}
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No file content disposition header")
				return
			}
			if fh.Size > opts.FileSizeLimitBytes {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", limitMsg)
				return
			}
			if fh.Filename == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No file content disposition header")
				return
			}

			src, err := fh.Open()
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to read upload")
				return
			}
			defer src.Close()

			ctx := c.Request.Context()
			if err := files.Store(ctx, src, fh.Filename); err != nil {
				log.Printf("[storage] store %s failed: %v", fh.Filename, err)
				respondStorageError(c, err)
				return
			}
			recordMetric(c, metrics, OpStore, fh.Size)
			c.JSON(http.StatusOK, gin.H{"filename": fh.Filename, "size": fh.Size})
		})

		api.DELETE("", func(c *gin.Context) {
			ctx := c.Request.Context()
			filename, ok := requireFilename(c, files)
			if !ok {
				return
			}
			if !files.Exists(ctx, filename) {
				respondError(c, http.StatusNotFound, "NOT_FOUND", "file not found")
				return
			}
			if err := files.Delete(ctx, filename); err != nil {
				log.Printf("[storage] delete %s failed: %v", filename, err)
				respondStorageError(c, err)
				return
			}
			recordMetric(c, metrics, OpDelete, 0)
			c.Status(http.StatusOK)
		})

		api.GET("/metrics", func(c *gin.Context) {
			ctx := c.Request.Context()
			id, _ := IdentityFromContext(ctx)
			user, global, err := metrics.Snapshot(ctx, id.Username)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load metrics")
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"enabled": metrics != nil,
				"user":    user,
				"global":  global,
			})
		})
	}

	return r
}

// requireFilename reads the filename query parameter and rejects empty or unsafe names.
func requireFilename(c *gin.Context, files *UserFileStorage) (string, bool) {
	filename := c.Query("filename")
	if filename == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "No filename has been provided.")
		return "", false
	}
	if _, err := files.Resolve(c.Request.Context(), filename); err != nil {
		respondStorageError(c, err)
		return "", false
	}
	return filename, true
}

func isFormMediaType(mediaType string) bool {
	return mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded"
}

// recordMetric never fails the request; counters are informational.
func recordMetric(c *gin.Context, metrics *StorageMetrics, op string, bytes int64) {
	ctx := c.Request.Context()
	id, _ := IdentityFromContext(ctx)
	if err := metrics.Record(ctx, id.Username, op, bytes); err != nil {
		log.Printf("[metrics] record %s failed: %v", op, err)
	}
}
