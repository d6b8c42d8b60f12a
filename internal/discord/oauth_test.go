package discord

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func oauthServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if id, secret, ok := r.BasicAuth(); !ok || id != "cid" || secret != "csecret" {
			t.Errorf("client credentials not sent in header")
		}
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600,"scope":"identify"}`))
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"42","username":"ada","global_name":"Ada L"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuth_AuthCodeURL(t *testing.T) {
	o := NewOAuth(Config{ClientID: "cid", ClientSecret: "s", RedirectURL: "https://mw.test/discord/callback", APIBase: "https://discord.com/api/v10"}, nil)
	u, err := url.Parse(o.AuthCodeURL("st-1"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if u.Host != "discord.com" || q.Get("state") != "st-1" || q.Get("scope") != "identify" ||
		q.Get("client_id") != "cid" || q.Get("response_type") != "code" {
		t.Fatalf("unexpected consent url %s", u)
	}
}

func TestOAuth_Exchange(t *testing.T) {
	srv := oauthServer(t)
	o := NewOAuth(Config{ClientID: "cid", ClientSecret: "csecret", RedirectURL: "https://mw.test/cb", APIBase: srv.URL + "/"}, srv.Client())

	u, err := o.Exchange(context.Background(), "good")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if u.ID != "42" || u.DisplayName() != "Ada L" {
		t.Fatalf("user = %#v", u)
	}

	if _, err := o.Exchange(context.Background(), "bad"); err == nil {
		t.Fatalf("rejected code must fail")
	}
	if _, err := o.Exchange(context.Background(), " "); err == nil {
		t.Fatalf("blank code must fail")
	}
}

func TestOAuth_Disabled(t *testing.T) {
	o := NewOAuth(Config{}, nil)
	if o.Enabled() {
		t.Fatalf("empty config must be disabled")
	}
	if _, err := o.Exchange(context.Background(), "code"); !errors.Is(err, ErrOAuthDisabled) {
		t.Fatalf("want ErrOAuthDisabled, got %v", err)
	}
}

func TestUser_DisplayNameFallsBack(t *testing.T) {
	if got := (User{Username: "ada"}).DisplayName(); got != "ada" {
		t.Fatalf("DisplayName = %q", got)
	}
}
