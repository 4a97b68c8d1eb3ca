package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimitedRouter(capacity, perMinute int) *gin.Engine {
	r := gin.New()
	r.Use(NewSimpleTokenBucket(capacity, perMinute).GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func ping(r *gin.Engine) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestTokenBucketAllowsWithinCapacity(t *testing.T) {
	r := newLimitedRouter(3, 60)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ping(r))
	}
}

func TestTokenBucketRejectsWhenDrained(t *testing.T) {
	r := newLimitedRouter(2, 60)
	assert.Equal(t, http.StatusOK, ping(r))
	assert.Equal(t, http.StatusOK, ping(r))
	assert.Equal(t, http.StatusTooManyRequests, ping(r))
}

func TestTokenBucketTracksClientsSeparately(t *testing.T) {
	r := gin.New()
	r.Use(NewSimpleTokenBucket(1, 60).GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2:1234"))
}
