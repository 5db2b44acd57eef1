package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	both := AuthConfig{BearerToken: "secret-token", BasicUser: "admin", BasicPass: "pass123"}

	tests := []struct {
		name    string
		cfg     AuthConfig
		prepare func(*http.Request)
		want    int
	}{
		{
			name:    "valid bearer",
			cfg:     AuthConfig{BearerToken: "secret-token"},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") },
			want:    http.StatusOK,
		},
		{
			name:    "wrong bearer",
			cfg:     AuthConfig{BearerToken: "secret-token"},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer wrong-token") },
			want:    http.StatusUnauthorized,
		},
		{
			name:    "valid basic",
			cfg:     AuthConfig{BasicUser: "admin", BasicPass: "pass123"},
			prepare: func(r *http.Request) { r.SetBasicAuth("admin", "pass123") },
			want:    http.StatusOK,
		},
		{
			name:    "wrong basic password",
			cfg:     AuthConfig{BasicUser: "admin", BasicPass: "pass123"},
			prepare: func(r *http.Request) { r.SetBasicAuth("admin", "wrongpass") },
			want:    http.StatusUnauthorized,
		},
		{
			name:    "no credentials",
			cfg:     AuthConfig{BearerToken: "secret-token"},
			prepare: func(*http.Request) {},
			want:    http.StatusUnauthorized,
		},
		{
			name:    "bearer accepted when both configured",
			cfg:     both,
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret-token") },
			want:    http.StatusOK,
		},
		{
			name:    "basic accepted when both configured",
			cfg:     both,
			prepare: func(r *http.Request) { r.SetBasicAuth("admin", "pass123") },
			want:    http.StatusOK,
		},
		{
			name: "basic credentials rejected against bearer-only config",
			cfg:  AuthConfig{BearerToken: "secret-token"},
			prepare: func(r *http.Request) {
				r.SetBasicAuth("admin", "pass123")
			},
			want: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := authMiddleware(tt.cfg)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
			tt.prepare(req)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_BasicChallenge(t *testing.T) {
	t.Parallel()

	handler := authMiddleware(AuthConfig{BasicUser: "admin", BasicPass: "pass123"})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("missing WWW-Authenticate challenge for basic-only config")
	}
}

func TestAuthConfig_IsConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  AuthConfig
		want bool
	}{
		{"empty", AuthConfig{}, false},
		{"bearer only", AuthConfig{BearerToken: "tok"}, true},
		{"basic complete", AuthConfig{BasicUser: "u", BasicPass: "p"}, true},
		{"basic partial user", AuthConfig{BasicUser: "u"}, false},
		{"basic partial pass", AuthConfig{BasicPass: "p"}, false},
		{"both", AuthConfig{BearerToken: "t", BasicUser: "u", BasicPass: "p"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}
