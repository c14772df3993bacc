package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/noah-isme/paybridge/internal/common"
)

// Token guards routes with a single shared bearer token. The bridge serves
// one storefront operator, so a static credential compared in constant time
// replaces per-user authentication. An empty token disables the guard.
type Token struct {
	Value string
}

// Middleware rejects requests lacking the configured bearer token.
func (t Token) Middleware(next http.Handler) http.Handler {
	expected := strings.TrimSpace(t.Value)
	if expected == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		provided := ""
		if strings.HasPrefix(strings.ToLower(header), "bearer ") {
			provided = strings.TrimSpace(header[len("bearer "):])
		}
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid or missing bearer token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
