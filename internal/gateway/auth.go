package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authMiddleware guards the admin surface. Requests pass when they
// carry either a matching bearer token or matching basic credentials;
// everything else gets a 401 with a challenge for the configured
// scheme. Comparisons are constant time.
func authMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.allowsBearer(r) || cfg.allowsBasic(r) {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.BasicUser != "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="parley admin"`)
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// allowsBearer reports whether the request carries the configured
// bearer token.
func (a AuthConfig) allowsBearer(r *http.Request) bool {
	if a.BearerToken == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && constantTimeEqual(token, a.BearerToken)
}

// allowsBasic reports whether the request carries the configured basic
// credentials. Both user and pass are compared even on a user mismatch
// so timing does not reveal which half was wrong.
func (a AuthConfig) allowsBasic(r *http.Request) bool {
	if a.BasicUser == "" || a.BasicPass == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := constantTimeEqual(user, a.BasicUser)
	passOK := constantTimeEqual(pass, a.BasicPass)
	return userOK && passOK
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
