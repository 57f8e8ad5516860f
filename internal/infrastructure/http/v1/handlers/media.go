package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"melodia/internal/core/apperror"
	"melodia/internal/core/id"
	"melodia/internal/domain/media"
)

const presignDefaultExpiry = 15 * time.Minute

// MediaHandler streams audio files and cover images through the object host.
type MediaHandler struct {
	*BaseHandler
	store media.Store
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(base *BaseHandler, store media.Store) *MediaHandler {
	return &MediaHandler{BaseHandler: base, store: store}
}

// Upload handles POST /media - multipart upload, returns the stored key.
func (h *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("multipart field 'file' is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Keys are content-addressed by a fresh id so uploads never collide.
	key := fmt.Sprintf("%s%s", id.New(), path.Ext(file.Filename))

	obj, err := h.store.Put(c.Request.Context(), key, src, file.Size, contentType)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":         obj.Key,
		"size":        obj.Size,
		"contentType": obj.ContentType,
	})
}

// Download handles GET /media/:key - streams the blob.
func (h *MediaHandler) Download(c *gin.Context) {
	key := c.Param("key")

	r, obj, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	defer r.Close()

	c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, r, nil)
}

// Presign handles GET /media/:key/url - returns a time-limited download URL.
func (h *MediaHandler) Presign(c *gin.Context) {
	key := c.Param("key")

	expiry := presignDefaultExpiry
	if raw := c.Query("expirySeconds"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			h.Error(c, apperror.NewValidation("expirySeconds must be a positive integer"))
			return
		}
		expiry = time.Duration(secs) * time.Second
	}

	url, err := h.store.PresignedURL(c.Request.Context(), key, expiry)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"url": url, "expiresIn": int(expiry.Seconds())})
}

// Delete handles DELETE /media/:key
func (h *MediaHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("key")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
