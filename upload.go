package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	uploadMeals  = "meals"
	uploadPhotos = "photos"

	maxUploadBytes = 10 << 20
	// Room for the other multipart fields on top of the file itself.
	formOverheadBytes = 1 << 20
)

var imageKinds = []string{"jpeg", "jpg", "png", "webp", "heic"}

// limitBody caps the request body size for upload routes. A declared length
// over the cap is rejected before any of the body is read.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			apiError(c, http.StatusRequestEntityTooLarge, "photo must be 10MB or smaller")
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// isImage accepts a file only when both its extension and its declared MIME
// type name one of the allowed image kinds.
func isImage(filename, mime string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	mime = strings.ToLower(mime)
	extOK, mimeOK := false, false
	for _, kind := range imageKinds {
		if ext == kind {
			extOK = true
		}
		if strings.Contains(mime, kind) {
			mimeOK = true
		}
	}
	return extOK && mimeOK
}

// saveUpload stores the multipart "photo" file as <uuid><ext> under
// uploadDir/subdir and returns its public URL. On failure it writes the
// error response itself.
func (h *Handler) saveUpload(c *gin.Context, subdir string) (string, bool) {
	fh, err := c.FormFile("photo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			apiError(c, http.StatusRequestEntityTooLarge, "photo must be 10MB or smaller")
			return "", false
		}
		apiError(c, http.StatusBadRequest, "no photo uploaded")
		return "", false
	}
	if fh.Size > maxUploadBytes {
		apiError(c, http.StatusRequestEntityTooLarge, "photo must be 10MB or smaller")
		return "", false
	}
	if !isImage(fh.Filename, fh.Header.Get("Content-Type")) {
		apiError(c, http.StatusBadRequest, "only image files are allowed")
		return "", false
	}

	dir := filepath.Join(h.uploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.serverError(c, "failed to store photo", err)
		return "", false
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, filepath.Join(dir, name)); err != nil {
		h.serverError(c, "failed to store photo", err)
		return "", false
	}

	return "/uploads/" + subdir + "/" + name, true
}
