package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		presented string
		wantOK    bool
	}{
		{name: "matching key", key: "secret", presented: "secret", wantOK: true},
		{name: "wrong key", key: "secret", presented: "guess"},
		{name: "missing key", key: "secret", presented: ""},
		{name: "no key configured", key: "", presented: ""},
		{name: "no key configured but presented", key: "", presented: "anything"},
		{name: "prefix of key", key: "secret", presented: "sec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIKeyAuth(tt.key).Check(tt.presented)
			if (err == nil) != tt.wantOK {
				t.Errorf("Check(%q) error = %v, wantOK %v", tt.presented, err, tt.wantOK)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	a := NewAPIKeyAuth("secret")
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "no header", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", header: HeaderAPIKey, value: "nope", wantStatus: http.StatusUnauthorized},
		{name: "valid key", header: HeaderAPIKey, value: "secret", wantStatus: http.StatusTeapot},
		{name: "legacy header", header: "apiKey", value: "secret", wantStatus: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/map/GetMap", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
