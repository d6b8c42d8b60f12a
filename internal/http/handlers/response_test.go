package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterworkhq/masterwork/internal/domain"
	"github.com/masterworkhq/masterwork/internal/http/middleware"
	"github.com/masterworkhq/masterwork/internal/services"
)

func envelopeRouter(t *testing.T, h gin.HandlerFunc) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(middleware.AccessLogOptions{}))
	r.GET("/", h)
	return r, &buf
}

func callEnvelope(t *testing.T, r *gin.Engine) (int, ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if er.RequestID != "rid-1" {
		t.Fatalf("request id not echoed: %+v", er)
	}
	return w.Code, er
}

func TestFail_ClientErrorIsNotLoggedAsError(t *testing.T) {
	r, buf := envelopeRouter(t, func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })
	status, er := callEnvelope(t, r)
	if status != http.StatusNotFound || er.Code != ErrCodeNotFound || er.Message != "nope" {
		t.Fatalf("%d %+v", status, er)
	}
	if strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("4xx logged as error: %s", buf.String())
	}
}

func TestFailErr_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
		{fmt.Errorf("text: %w", services.ErrTooLong), http.StatusBadRequest, ErrCodeTooLong},
		{services.ErrRelationshipNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrNotParticipant, http.StatusForbidden, ErrCodeNotParticipant},
		{services.ErrWrongArea, http.StatusConflict, ErrCodeWrongArea},
		{services.ErrAIUnavailable, http.StatusBadGateway, ErrCodeAIUnavailable},
		{&services.LinkError{Code: services.LinkNotUsable}, http.StatusGone, services.LinkNotUsable},
		{&services.LinkError{Code: services.LinkIDCollision}, http.StatusConflict, services.LinkIDCollision},
	}
	for _, tc := range cases {
		err := tc.err
		r, _ := envelopeRouter(t, func(c *gin.Context) { failErr(c, err, ErrCodeInternal) })
		status, er := callEnvelope(t, r)
		if status != tc.status || er.Code != tc.code {
			t.Errorf("%v: got %d %q, want %d %q", tc.err, status, er.Code, tc.status, tc.code)
		}
	}
}

func TestFailErr_UnexpectedErrorIsHiddenAndLogged(t *testing.T) {
	r, buf := envelopeRouter(t, func(c *gin.Context) {
		failErr(c, errors.New("sqlite: disk I/O error"), ErrCodeListFailed)
	})
	status, er := callEnvelope(t, r)
	if status != http.StatusInternalServerError || er.Code != ErrCodeListFailed {
		t.Fatalf("%d %+v", status, er)
	}
	if strings.Contains(er.Message, "sqlite") {
		t.Fatalf("internal detail leaked: %q", er.Message)
	}
	if !strings.Contains(buf.String(), "disk I/O error") {
		t.Fatalf("cause not logged: %s", buf.String())
	}
}

func TestLinkMessage(t *testing.T) {
	if LinkMessage(services.LinkNotUsable) != "This invite has already been used, revoked, or expired." {
		t.Fatalf("not_usable sentence changed")
	}
	if LinkMessage("something_new") != "The invite could not be accepted." {
		t.Fatalf("unknown code fallback")
	}
}

func TestFailErr_NotUsableCarriesReason(t *testing.T) {
	cases := []struct {
		reason string
		want   string
	}{
		{domain.ReasonExpired, "This invite has expired. Ask for a new link."},
		{domain.ReasonUsed, "This invite has already been used."},
		{domain.ReasonRevoked, "This invite was revoked by its owner."},
		{services.ReasonSelf, "You cannot accept your own invite. Share the link instead."},
		{"", LinkMessage(services.LinkNotUsable)},
	}
	seen := map[string]bool{}
	for _, tc := range cases {
		le := &services.LinkError{Code: services.LinkNotUsable, Reason: tc.reason, Err: services.ErrInviteNotUsable}
		r, _ := envelopeRouter(t, func(c *gin.Context) { failErr(c, le, ErrCodeInternal) })
		status, er := callEnvelope(t, r)
		if status != http.StatusGone || er.Code != services.LinkNotUsable {
			t.Fatalf("%q: %d %+v", tc.reason, status, er)
		}
		if er.Reason != tc.reason || er.Message != tc.want {
			t.Fatalf("%q: got reason=%q message=%q", tc.reason, er.Reason, er.Message)
		}
		if seen[er.Message] {
			t.Fatalf("%q: sentence %q reused", tc.reason, er.Message)
		}
		seen[er.Message] = true
	}

	// Reasons only refine not_usable.
	if got := LinkReasonMessage(services.LinkCreateDenied, domain.ReasonExpired); got != LinkMessage(services.LinkCreateDenied) {
		t.Fatalf("create_denied refined: %q", got)
	}
}

func TestSuccessHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"n": 1}) })
	r.GET("/none", noContent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || strings.TrimSpace(w.Body.String()) != `{"n":1}` {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/none", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}
