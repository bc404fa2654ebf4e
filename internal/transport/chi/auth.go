package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerChallenge = `Bearer realm="docsearch"`

// publicPaths are served without a key.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// apiKeys is the configured key set. valid compares against every key in
// constant time.
type apiKeys [][]byte

func newAPIKeys(keys []string) apiKeys {
	out := make(apiKeys, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, []byte(k))
		}
	}
	return out
}

func (k apiKeys) valid(token string) bool {
	tok := []byte(token)
	match := 0
	for _, key := range k {
		match |= subtle.ConstantTimeCompare(key, tok)
	}
	return match == 1
}

// bearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuthMiddleware rejects document, search and usage calls that do not
// carry one of apiKeys. An empty key set disables authentication.
func BearerAuthMiddleware(keys []string) func(http.Handler) http.Handler {
	valid := newAPIKeys(keys)

	return func(next http.Handler) http.Handler {
		if len(valid) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				unauthorized(w, "authorization header must use Bearer scheme")
				return
			}
			if !valid.valid(token) {
				unauthorized(w, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", bearerChallenge)
	writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, message)
}
