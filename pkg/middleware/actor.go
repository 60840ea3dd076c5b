package middleware

import (
	"net/http"
	"shelfkeeper/pkg/identity"
	"strings"
)

// Actor copies the caller identity set by the auth gateway onto the request
// context, where the audit recorder picks it up.
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor := strings.TrimSpace(r.Header.Get(identity.HeaderActor)); actor != "" {
				r = r.WithContext(identity.WithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}
