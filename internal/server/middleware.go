package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const operatorKeyHeader = "X-Operator-Key"

// operatorMiddleware guards operator routes with a key checked against a
// bcrypt hash. An empty hash leaves the routes open.
func operatorMiddleware(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if keyHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(operatorKeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "operator key required")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid operator key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
