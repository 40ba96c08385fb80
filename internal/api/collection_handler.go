package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/api/shared"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
)

// ContentService serves collection content through the local cache.
// *syncer.Coordinator implements it.
type ContentService interface {
	Items(ctx context.Context, collectionID uuid.UUID) ([]domain.Item, error)
	Reset(ctx context.Context)
}

// CollectionHandler handles collection content and cache requests
type CollectionHandler struct {
	content ContentService
	logger  *slog.Logger
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(content ContentService, logger *slog.Logger) *CollectionHandler {
	if content == nil {
		panic("content cannot be nil for CollectionHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for CollectionHandler")
	}

	return &CollectionHandler{
		content: content,
		logger:  logger.With(slog.String("component", "collection_handler")),
	}
}

// ListItems handles GET /collections/{id}/items requests
func (h *CollectionHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, collectionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	items, err := h.content.Items(r.Context(), collectionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load collection items")
		return
	}

	resp := ItemListResponse{
		CollectionID: collectionID,
		Items:        make([]ItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = itemToResponse(item)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ResetCache handles DELETE /cache requests.
// Subsequent reads go to the remote store.
func (h *CollectionHandler) ResetCache(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authenticatedUser(w, r, log)
	if !ok {
		return
	}

	h.content.Reset(r.Context())
	log.Info("local cache reset requested", slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}
