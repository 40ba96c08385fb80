package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/api/shared"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/service/session"
)

// SessionManager starts and tracks review sessions.
// *session.Manager implements it.
type SessionManager interface {
	Start(ctx context.Context, collectionID uuid.UUID) (*session.Session, error)
	Get(id uuid.UUID) (*session.Session, error)
	Close(id uuid.UUID) error
}

// SessionHandler handles review session requests
type SessionHandler struct {
	sessions SessionManager
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionManager, logger *slog.Logger) *SessionHandler {
	if sessions == nil {
		panic("sessions cannot be nil for SessionHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /collections/{id}/sessions requests.
// It loads the collection's queue and returns the first card.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, collectionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	s, err := h.sessions.Start(r.Context(), collectionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start review session")
		return
	}

	log.Debug("review session started",
		slog.String("user_id", userID.String()),
		slog.String("session_id", s.ID().String()),
		slog.String("phase", string(s.Phase())))
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(s))
}

// GetSession handles GET /sessions/{id} requests
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(s))
}

// RateCard handles POST /sessions/{id}/ratings requests.
// It rates the current card and returns the session's next state.
func (h *SessionHandler) RateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req RateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid rating payload", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	outcome, err := s.Rate(r.Context(), domain.Quality(*req.Quality))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record rating")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RateResponse{
		Outcome:    outcome,
		NextReview: formatNextReview(outcome),
		Session:    sessionToResponse(s),
	})
}

// RestartSession handles POST /sessions/{id}/restart requests
func (h *SessionHandler) RestartSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	if err := s.Restart(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to restart review session")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(s))
}

// DeleteSession handles DELETE /sessions/{id} requests
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Close(s.ID()); err != nil {
		HandleAPIError(w, r, err, "Failed to close review session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedSession resolves the session in the path. Sessions of other users are
// reported as not found.
func (h *SessionHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return nil, false
	}

	s, err := h.sessions.Get(sessionID)
	if err == nil && s.UserID() != userID {
		log.Warn("session requested by another user",
			slog.String("session_id", sessionID.String()),
			slog.String("user_id", userID.String()))
		err = session.ErrSessionNotFound
	}
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			log.Error("failed to look up session", slog.String("error", err.Error()))
		}
		HandleAPIError(w, r, err, "")
		return nil, false
	}
	return s, true
}
