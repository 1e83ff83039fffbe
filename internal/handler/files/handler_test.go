package files

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HealthLane-PH/healthlane-web/internal/storage"
)

func TestServeFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/files", []byte("key"))
	require.NoError(t, err)
	key := "prcIDs/1_prc id.jpg"
	require.NoError(t, ls.Put(ctx, key, strings.NewReader("jpeg"), "image/jpeg"))

	engine := gin.New()
	NewHandler(ls, ls).RegisterRoutes(&engine.RouterGroup)

	signed, err := ls.SignedURL(ctx, key, time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	q := u.Query()
	q.Set("signature", "00")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.EscapedPath()+"?"+q.Encode(), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/prcIDs/1_prc%20id.jpg", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
