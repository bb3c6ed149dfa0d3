package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuth(t *testing.T) {
	config := AuthConfig{Enabled: true, User: "admin", Password: "secret"}

	tests := []struct {
		name     string
		path     string
		user     string
		pass     string
		setAuth  bool
		expected int
	}{
		{"valid credentials", "/status", "admin", "secret", true, http.StatusOK},
		{"wrong password", "/status", "admin", "wrong", true, http.StatusUnauthorized},
		{"wrong user", "/status", "root", "secret", true, http.StatusUnauthorized},
		{"no credentials", "/status", "", "", false, http.StatusUnauthorized},
		{"excluded exact path", "/health", "", "", false, http.StatusOK},
		{"excluded prefix", "/public/logo", "", "", false, http.StatusOK},
		{"exact exclude is not a prefix", "/health/deep", "", "", false, http.StatusUnauthorized},
	}

	handler := Auth(config, "/health", "/public/*")(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, w.Code)
			}
			if tt.expected == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") != `Basic realm="powermon"` {
				t.Errorf("expected WWW-Authenticate challenge, got %q", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	handler := Auth(AuthConfig{Enabled: false, User: "admin", Password: "secret"})(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}
