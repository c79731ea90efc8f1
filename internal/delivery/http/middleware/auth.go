package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "savingscircle/internal/delivery/http/helpers"
	"savingscircle/internal/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// SetActor returns a context carrying the authenticated actor. Used by auth middleware.
func SetActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the authenticated actor from the context, if present.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(actorKey).(domain.Actor)
	return a, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header. Browsers
// cannot set headers on a WebSocket handshake, so a token query parameter is
// accepted when allowQuery is true.
func BearerToken(r *http.Request, allowQuery bool) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		if allowQuery {
			if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
				return t, ""
			}
		}
		return "", "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", "invalid authorization format"
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the actor in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return requireAuth(verifier, logger, false)
}

// RequireAuthOrQueryToken is RequireAuth that also accepts ?token= for WebSocket handshakes.
func RequireAuthOrQueryToken(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return requireAuth(verifier, logger, true)
}

func requireAuth(verifier domain.TokenVerifier, logger *slog.Logger, allowQuery bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, problem := BearerToken(r, allowQuery)
			if problem != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, problem)
				return
			}
			actor, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetActor(r.Context(), actor))
			next(w, r)
		}
	}
}
