package shield

import (
	"net/http"
	"strings"
)

// MaxJSONBody returns middleware that limits the request body size for
// JSON requests. Snapshot captures carry serialized page state, so the
// limit should leave generous headroom over typical tab state.
func MaxJSONBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
