package middleware

import (
	"net/http"
	"testing"
)

func TestRedactor_String(t *testing.T) {
	r := NewRedactor()
	cases := []struct{ in, want string }{
		{"", ""},
		{"page=2", "page=2"},
		{"token=abc&x=1", "token=[REDACTED]&x=1"},
		{"code=q1&state=zz", "code=[REDACTED]&state=[REDACTED]"},
		{"id_token=eyJ.x.y", "id_token=[REDACTED]"},
		{"rel 3f2b1c9e-8a7d-4e2f-9b1a-0c5d6e7f8a9b", "rel [REDACTED:id]"},
		{"write to ada@example.com", "write to [REDACTED:email]"},
		{"call 555-123-4567 now", "call [REDACTED:phone] now"},
	}
	for _, tc := range cases {
		if got := r.String(tc.in); got != tc.want {
			t.Errorf("String(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactor_Headers(t *testing.T) {
	r := NewRedactor(" x-api-key ", "")
	h := http.Header{}
	h.Set("Authorization", "Bearer t")
	h.Set("Cookie", "mw_session=abc")
	h.Set("X-Api-Key", "k")
	h.Add("Accept", "application/json")
	h.Add("Accept", "text/plain")

	got := r.Headers(h)
	for _, k := range []string{"Authorization", "Cookie", "X-Api-Key"} {
		if got[k] != "[REDACTED]" {
			t.Errorf("%s = %q", k, got[k])
		}
	}
	if got["Accept"] != "application/json, text/plain" {
		t.Errorf("Accept = %q", got["Accept"])
	}
}
