package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"savingscircle/internal/delivery/http/controllers"
	"savingscircle/internal/delivery/http/helpers"
	"savingscircle/internal/delivery/http/middleware"
	"savingscircle/internal/domain"

	_ "savingscircle/docs"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

type RouterDeps struct {
	Groups        *controllers.GroupController
	Contributions *controllers.ContributionController
	Live          *controllers.LiveController
	Verifier      domain.TokenVerifier
	Metrics       http.Handler
	Health        Pinger
	Logger        *slog.Logger
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.Verifier, d.Logger)

	// Groups
	mux.HandleFunc("POST /groups", auth(d.Groups.CreateGroup))
	mux.HandleFunc("GET /groups/{groupID}", auth(d.Groups.GetGroup))
	mux.HandleFunc("POST /groups/{groupID}/members", auth(d.Groups.Join))
	mux.HandleFunc("POST /groups/{groupID}/fill", auth(d.Groups.Fill))
	mux.HandleFunc("POST /groups/{groupID}/draw", auth(d.Groups.TriggerDraw))
	mux.HandleFunc("POST /groups/{groupID}/turns/advance", auth(d.Groups.AdvanceTurn))
	mux.HandleFunc("GET /groups/{groupID}/deliveries", auth(d.Groups.ListDeliveries))

	// Contributions
	mux.HandleFunc("POST /groups/{groupID}/contributions", auth(d.Contributions.Submit))
	mux.HandleFunc("GET /groups/{groupID}/contributions", auth(d.Contributions.List))
	mux.HandleFunc("POST /groups/{groupID}/contributions/{contributionID}/confirm", auth(d.Contributions.Confirm))
	mux.HandleFunc("POST /groups/{groupID}/contributions/{contributionID}/reject", auth(d.Contributions.Reject))

	// Live
	mux.HandleFunc("GET /groups/{groupID}/live", middleware.RequireAuthOrQueryToken(d.Verifier, d.Logger)(d.Live.Live))

	// Ops
	mux.HandleFunc("GET /healthz", healthz(d.Health, d.Logger))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

func healthz(ping Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "err", err)
				helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "unavailable")
				return
			}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
