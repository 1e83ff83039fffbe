// Package files serves uploads from local disk behind the signed URLs that
// storage.LocalStorage hands out.
package files

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/HealthLane-PH/healthlane-web/internal/handler"
	"github.com/HealthLane-PH/healthlane-web/internal/storage"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
)

// Verifier checks the expires and signature query of a signed URL.
type Verifier interface {
	VerifySignature(key, expires, signature string) bool
}

type Handler struct {
	store    storage.Storage
	verifier Verifier
}

func NewHandler(store storage.Storage, verifier Verifier) *Handler {
	return &Handler{store: store, verifier: verifier}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/files/*key", h.ServeFile)
}

func (h *Handler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || !h.verifier.VerifySignature(key, c.Query("expires"), c.Query("signature")) {
		handler.RespondError(c, errors.Forbidden("this link is invalid or has expired"))
		return
	}

	body, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		handler.RespondError(c, errors.NotFound("file", err))
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}
