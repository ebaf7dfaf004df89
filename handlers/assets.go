package handlers

import (
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/assets"
)

// AssetHandler exposes upload/download/share endpoints for post assets
// (screenshots, plots) backed by MinIO.
type AssetHandler struct {
	store *assets.MinIOStorage
}

func NewAssetHandler(store *assets.MinIOStorage) *AssetHandler {
	return &AssetHandler{store: store}
}

// Register mounts asset routes; authMW guards uploads.
func (h *AssetHandler) Register(r *gin.Engine, authMW gin.HandlerFunc) {
	if authMW != nil {
		r.POST("/api/assets", authMW, h.Upload)
	} else {
		r.POST("/api/assets", h.Upload)
	}
	r.GET("/assets/*key", h.Download)
	r.GET("/api/assets/presign", h.Presign)
}

// Upload accepts a multipart file and stores it under assets/<filename>.
func (h *AssetHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	key := "assets/" + path.Base(file.Filename)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.store.Upload(c.Request.Context(), key, src, file.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": "/assets/" + path.Base(file.Filename)})
}

// Download streams a stored asset.
func (h *AssetHandler) Download(c *gin.Context) {
	key := "assets" + c.Param("key")
	obj, err := h.store.Download(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	defer obj.Close()
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", obj, nil)
}

// Presign returns a presigned GET URL for embedding assets externally.
func (h *AssetHandler) Presign(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key query parameter required"})
		return
	}
	expires := 15 * time.Minute
	if v := c.Query("expires_seconds"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expires = time.Duration(n) * time.Second
		}
	}
	u, err := h.store.PresignedURL(c.Request.Context(), key, expires)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presign failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "expiresIn": int(expires.Seconds())})
}
