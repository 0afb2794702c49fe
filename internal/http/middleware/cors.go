package middleware

import (
	"net/http"
	"strings"
)

// corsPolicy holds the precomputed allowlist and response headers for the
// booking API's browser surface.
type corsPolicy struct {
	allowAny bool
	origins  map[string]struct{}
	headers  string
	methods  string
}

// CORS restricts cross-origin browser access to the configured origins.
// An entry of "*" allows any origin; the matched Origin is always echoed
// back rather than a wildcard so credentialed requests keep working.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	p := corsPolicy{
		origins: make(map[string]struct{}),
		headers: "Authorization, Content-Type, X-Request-ID",
		methods: "GET, POST, OPTIONS",
	}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			p.allowAny = true
		default:
			p.origins[strings.ToLower(origin)] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if p.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", p.headers)
				h.Set("Access-Control-Allow-Methods", p.methods)
				h.Set("Access-Control-Max-Age", "600")
			}

			if isPreflight(r) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.allowAny {
		return true
	}
	_, ok := p.origins[strings.ToLower(origin)]
	return ok
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}
