package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

const basicRealm = `Basic realm="Secure Area"`

// BasicAuth guards every request with a single username/password pair.
// Requests without matching credentials get a 401 challenge and never reach
// next.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	wantUser := sha256.Sum256([]byte(username))
	wantPass := sha256.Sum256([]byte(password))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				gotUser := sha256.Sum256([]byte(user))
				gotPass := sha256.Sum256([]byte(pass))
				userOK := subtle.ConstantTimeCompare(gotUser[:], wantUser[:]) == 1
				passOK := subtle.ConstantTimeCompare(gotPass[:], wantPass[:]) == 1
				if userOK && passOK {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate", basicRealm)
			http.Error(w, "Authentication required", http.StatusUnauthorized)
		})
	}
}
