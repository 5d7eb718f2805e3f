package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appcontext "github.com/SeakMengs/CertEditor/internal/app_context"
	"github.com/SeakMengs/CertEditor/internal/config"
	ratelimiter "github.com/SeakMengs/CertEditor/internal/rate_limiter"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newRouter(cfg config.RateLimiterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	app := &appcontext.Application{Logger: zap.NewNop().Sugar()}
	m := NewMiddleware(app, ratelimiter.NewRateLimiter(cfg, nil))

	r := gin.New()
	r.Use(m.RateLimiterMiddleware)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := newRouter(config.RateLimiterConfig{RequestsPerTimeFrame: 2, TimeFrame: time.Hour, Enabled: true})

	codes := make([]int, 0, 3)
	var retryAfter string
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
		retryAfter = w.Header().Get("Retry-After")
	}

	expected := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range expected {
		if codes[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, codes)
		}
	}
	if retryAfter == "" {
		t.Error("expected a Retry-After header on the rejected request")
	}
}

func TestRateLimiterMiddlewareDisabled(t *testing.T) {
	r := newRouter(config.RateLimiterConfig{RequestsPerTimeFrame: 1, TimeFrame: time.Hour, Enabled: false})

	for i := range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d rejected while the limiter is disabled", i+1)
		}
	}
}
