package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(origins []string, method, origin string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/api/commonstudents", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/api/commonstudents", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(method, "/api/commonstudents", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowAll(t *testing.T) {
	w := serve(nil, http.MethodGet, "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve([]string{"*"}, http.MethodGet, "http://school.test")
	assert.Equal(t, "http://school.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAllowList(t *testing.T) {
	origins := []string{"http://school.test/"}

	w := serve(origins, http.MethodGet, "http://school.test")
	assert.Equal(t, "http://school.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(origins, http.MethodGet, "http://evil.test")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPreflightShortCircuits(t *testing.T) {
	w := serve(nil, http.MethodOptions, "http://school.test")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
