package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabelsAndInFlight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "item") })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	okBefore := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/items/:id", "2xx"))
	missBefore := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "unmatched", "4xx"))

	for _, p := range []string{"/items/1", "/items/2", "/nope", "/empty"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "/items/:id", "2xx")); got != okBefore+2 {
		t.Fatalf("templated route count = %v, want %v", got, okBefore+2)
	}
	if got := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "unmatched", "4xx")); got != missBefore+1 {
		t.Fatalf("unmatched count = %v, want %v", got, missBefore+1)
	}
	if got := testutil.ToFloat64(inFlight); got != 0 {
		t.Fatalf("in flight = %v after requests finished", got)
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 204: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 0: "other", 700: "other"} {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
