package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, Accept"
	corsMaxAge       = "86400"
)

type originPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newOriginPolicy(allowed []string) originPolicy {
	p := originPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS echoes allowed browser origins and answers preflight requests with 204.
// "*" in allowedOrigins admits every origin.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Add("Vary", "Origin")
		origin := r.Header.Get("Origin")
		if policy.allows(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if h.Get("Access-Control-Allow-Origin") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
