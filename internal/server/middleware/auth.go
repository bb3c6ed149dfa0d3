package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type AuthConfig struct {
	Enabled  bool
	User     string
	Password string
}

// Auth enforces Basic auth when config.Enabled. Paths in excludePaths skip
// the check; a trailing "*" makes an entry a prefix match.
func Auth(config AuthConfig, excludePaths ...string) Middleware {
	if !config.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	exact := make(map[string]bool)
	var prefixes []string
	for _, p := range excludePaths {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			prefixes = append(prefixes, prefix)
		} else {
			exact[p] = true
		}
	}

	excluded := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	wantUser := []byte(config.User)
	wantPass := []byte(config.Password)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			// Compare both to keep timing independent of which one differs.
			userMatch := subtle.ConstantTimeCompare([]byte(user), wantUser) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), wantPass) == 1
			if !userMatch || !passMatch {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="powermon"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
