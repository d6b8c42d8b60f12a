package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/masterworkhq/masterwork/internal/auth"
)

type tokenTable map[string]string

func (t tokenTable) Parse(tok string) (auth.Identity, error) {
	if uid, ok := t[tok]; ok {
		return auth.Identity{UserID: uid}, nil
	}
	return auth.Identity{}, errors.New("bad token")
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(tokenTable{"good": "u1", "other": "u2"}, "mw_session"))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "user=%s", UserID(c)) })
	r.GET("/closed", RequireUser(), func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	return r
}

func TestAuthenticate_Sources(t *testing.T) {
	r := newAuthRouter()
	cases := []struct {
		name   string
		setup  func(*http.Request)
		wantID string
	}{
		{"anonymous", func(*http.Request) {}, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "mw_session", Value: "good"}) }, "u1"},
		{"bearer wins over cookie", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer other")
			r.AddCookie(&http.Cookie{Name: "mw_session", Value: "good"})
		}, "u2"},
		{"invalid token stays anonymous", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		tc.setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != "user="+tc.wantID {
			t.Errorf("%s: got %d %q", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestRequireUser(t *testing.T) {
	r := newAuthRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.AddCookie(&http.Cookie{Name: "mw_session", Value: "good"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "u1" {
		t.Fatalf("signed in: got %d %q", w.Code, w.Body.String())
	}
}
