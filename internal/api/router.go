package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/scry-vocab/internal/api/middleware"
	"github.com/phrazzld/scry-vocab/internal/service/auth"
)

// RouterDeps are the services behind the HTTP routes.
type RouterDeps struct {
	Sessions   SessionManager
	Stats      StatsService
	Content    ContentService
	JWTService auth.JWTService
	Logger     *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(log))

	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.JWTService)
	sessionHandler := NewSessionHandler(deps.Sessions, log)
	statsHandler := NewStatsHandler(deps.Stats, log)
	collectionHandler := NewCollectionHandler(deps.Content, log)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Collection content
			r.Get("/collections/{id}/items", collectionHandler.ListItems)
			r.Delete("/cache", collectionHandler.ResetCache)

			// Review sessions
			r.Post("/collections/{id}/sessions", sessionHandler.StartSession)
			r.Get("/sessions/{id}", sessionHandler.GetSession)
			r.Post("/sessions/{id}/ratings", sessionHandler.RateCard)
			r.Post("/sessions/{id}/restart", sessionHandler.RestartSession)
			r.Delete("/sessions/{id}", sessionHandler.DeleteSession)

			// Progress
			r.Get("/stats", statsHandler.GetCollectionStats)
			r.Get("/stats/me", statsHandler.GetUserStats)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
