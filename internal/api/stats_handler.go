package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/api/shared"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
)

// StatsService reports learning progress.
// *syncer.Coordinator implements it.
type StatsService interface {
	CollectionStats(ctx context.Context, collectionIDs []uuid.UUID) ([]domain.CollectionStats, error)
	UserStats(ctx context.Context) (domain.UserStats, error)
}

// StatsHandler handles stats requests
type StatsHandler struct {
	stats  StatsService
	now    func() time.Time
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats StatsService, logger *slog.Logger) *StatsHandler {
	if stats == nil {
		panic("stats cannot be nil for StatsHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for StatsHandler")
	}

	return &StatsHandler{
		stats:  stats,
		now:    time.Now,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// GetCollectionStats handles GET /stats?collection=... requests.
// Collections may be repeated or comma separated; duplicates are dropped.
func (h *StatsHandler) GetCollectionStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	query := StatsQuery{Collections: splitQueryValues(r.URL.Query()["collection"])}
	if err := shared.ValidateRequest(&query); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	seen := make(map[uuid.UUID]bool, len(query.Collections))
	ids := make([]uuid.UUID, 0, len(query.Collections))
	for _, raw := range query.Collections {
		id := uuid.MustParse(raw)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	stats, err := h.stats.CollectionStats(r.Context(), ids)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load collection stats")
		return
	}

	log.Debug("collection stats served", slog.Int("collections", len(stats)))
	shared.RespondWithJSON(w, r, http.StatusOK, CollectionStatsResponse{
		Collections: stats,
		GeneratedAt: h.now().UTC(),
	})
}

// GetUserStats handles GET /stats/me requests
func (h *StatsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.UserStats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load user stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
