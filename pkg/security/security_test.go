package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterRejectsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(2, time.Hour))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(0, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestVisitorStoreSweepsIdleEntries(t *testing.T) {
	store := newVisitorStore(1, time.Minute)
	start := time.Now()

	if !store.allow("10.0.0.1", start) || !store.allow("10.0.0.2", start) {
		t.Fatal("first request per key should pass")
	}
	if store.allow("10.0.0.1", start) {
		t.Fatal("second request inside the window should be limited")
	}

	// 超过过期时间后，下一次请求触发清理
	later := start.Add(4 * time.Minute)
	if !store.allow("10.0.0.3", later) {
		t.Fatal("new key should pass")
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.visitors) != 1 {
		t.Fatalf("expected idle visitors to be swept, have %d", len(store.visitors))
	}
	if _, ok := store.visitors["10.0.0.3"]; !ok {
		t.Fatal("active visitor was swept")
	}
}
