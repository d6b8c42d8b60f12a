package middleware

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if got := KeyByUserOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("anonymous key = %q", got)
	}
	c.Set(CtxKeyUserID, "u123")
	if got := KeyByUserOrIP()(c); got != "user:u123" {
		t.Fatalf("user key = %q", got)
	}
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func byHeader(c *gin.Context) string { return c.GetHeader("X-Key") }

func limitedRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(rl.Handler())
	r.POST("/relationships/:id/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func hit(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/relationships/r1/messages", nil)
	req.Header.Set("X-Key", key)
	req.Header.Set(HeaderIdempotencyKey, "k-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThenRetryAfter(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter("test-burst", 0.25, 2, byHeader)
	rl.now = clk.now
	r := limitedRouter(rl)

	before := testutil.ToFloat64(rateLimitedTotal.WithLabelValues("test-burst"))
	for i := 0; i < 2; i++ {
		if w := hit(r, "a"); w.Code != http.StatusCreated {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	w := hit(r, "a")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "4" {
		t.Fatalf("Retry-After = %q, want 4", got)
	}
	if got := testutil.ToFloat64(rateLimitedTotal.WithLabelValues("test-burst")); got != before+1 {
		t.Fatalf("rate limited counter = %v", got)
	}

	// Other keys have their own bucket.
	if w := hit(r, "b"); w.Code != http.StatusCreated {
		t.Fatalf("other key = %d", w.Code)
	}

	// A rejected request does not spend the token it was waiting for.
	clk.advance(4 * time.Second)
	if w := hit(r, "a"); w.Code != http.StatusCreated {
		t.Fatalf("after refill = %d", w.Code)
	}
}

func TestRateLimiter_ZeroRate(t *testing.T) {
	rl := NewRateLimiter("test-zero", 0, 0, byHeader)
	r := limitedRouter(rl)
	if w := hit(r, "a"); w.Code != http.StatusCreated {
		t.Fatalf("burst token = %d", w.Code)
	}
	w := hit(r, "a")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second = %d retry=%q", w.Code, w.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter("test-sweep", 10, 10, byHeader)
	rl.now = clk.now
	rl.IdleTTL = time.Minute
	r := limitedRouter(rl)

	hit(r, "a")
	hit(r, "b")
	if rl.size() != 2 {
		t.Fatalf("size = %d", rl.size())
	}
	clk.advance(30 * time.Second)
	hit(r, "b")
	clk.advance(45 * time.Second)
	hit(r, "c")
	if rl.size() != 2 {
		t.Fatalf("idle bucket kept: size = %d", rl.size())
	}
}

func TestRateLimiter_ReplaysBypass(t *testing.T) {
	rl := NewRateLimiter("test-replay", 0, 1, byHeader)
	setUser := func(c *gin.Context) { c.Set(CtxKeyUserID, "u1"); c.Next() }
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) { return true, nil }
	r := limitedRouter(rl, setUser, IdempotencyValidator(IdempotencyOptions{}, lookup))

	for i := 0; i < 5; i++ {
		if w := hit(r, "a"); w.Code != http.StatusCreated {
			t.Fatalf("replay %d = %d", i, w.Code)
		}
	}
}
