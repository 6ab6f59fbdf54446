package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
		wantCreds  bool
	}{
		{name: "listed origin", allowed: []string{"https://a.test"}, origin: "https://a.test", method: http.MethodGet, wantStatus: http.StatusOK, wantOrigin: "https://a.test", wantCreds: true},
		{name: "unlisted origin", allowed: []string{"https://a.test"}, origin: "https://b.test", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://b.test", method: http.MethodGet, wantStatus: http.StatusOK, wantOrigin: "https://b.test"},
		{name: "preflight", allowed: []string{"*"}, origin: "https://b.test", method: http.MethodOptions, wantStatus: http.StatusNoContent, wantOrigin: "https://b.test"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/", nil)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()
			CORS(tc.allowed)(next).ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tc.wantCreds {
				t.Fatalf("credentials = %v, want %v", got, tc.wantCreds)
			}
			if tc.wantOrigin != "" && !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
				t.Fatalf("PATCH missing from allowed methods")
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "abc-123" || rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("request id = %q, header %q", seen, rr.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "" || seen == "bad id\n" {
		t.Fatalf("invalid request id was kept: %q", seen)
	}
}
