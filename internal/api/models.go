package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/service/session"
)

// RateRequest is the payload for rating the current card.
type RateRequest struct {
	// Quality is the SM-2 rating, 0 (blackout) to 5 (perfect).
	Quality *int `json:"quality" validate:"required,min=0,max=5"`
}

// StatsQuery holds the collections requested from the stats endpoint.
type StatsQuery struct {
	Collections []string `validate:"required,min=1,max=100,dive,uuid"`
}

// ItemResponse is the content of one card.
type ItemResponse struct {
	ID            uuid.UUID `json:"id"`
	Term          string    `json:"term"`
	Meaning       string    `json:"meaning"`
	Pronunciation string    `json:"pronunciation,omitempty"`
	Example       string    `json:"example,omitempty"`
}

// ItemListResponse is the content of a collection in creation order.
type ItemListResponse struct {
	CollectionID uuid.UUID      `json:"collection_id"`
	Items        []ItemResponse `json:"items"`
}

// CardResponse is the card awaiting a rating.
type CardResponse struct {
	Item         ItemResponse `json:"item"`
	IsNew        bool         `json:"is_new"`
	Repetitions  int          `json:"repetitions"`
	EaseFactor   float64      `json:"ease_factor"`
	IntervalDays int          `json:"interval_days"`
	Mastery      int          `json:"mastery"`
}

// PreviewOption is the interval one rating would schedule.
type PreviewOption struct {
	Quality      int    `json:"quality"`
	IntervalDays int    `json:"interval_days"`
	Label        string `json:"label"`
}

// SessionResponse describes a session and, while active, its current card.
type SessionResponse struct {
	ID           uuid.UUID       `json:"id"`
	CollectionID uuid.UUID       `json:"collection_id"`
	Phase        session.Phase   `json:"phase"`
	Stats        session.Stats   `json:"stats"`
	Current      *CardResponse   `json:"current,omitempty"`
	Preview      []PreviewOption `json:"preview,omitempty"`
}

// RateResponse reports a rating's outcome and the session after it.
type RateResponse struct {
	Outcome    session.Outcome `json:"outcome"`
	NextReview string          `json:"next_review"`
	Session    SessionResponse `json:"session"`
}

// CollectionStatsResponse wraps per-collection stats.
type CollectionStatsResponse struct {
	Collections []domain.CollectionStats `json:"collections"`
	GeneratedAt time.Time                `json:"generated_at"`
}

func itemToResponse(item domain.Item) ItemResponse {
	return ItemResponse{
		ID:            item.ID,
		Term:          item.Term,
		Meaning:       item.Meaning,
		Pronunciation: item.Pronunciation,
		Example:       item.Example,
	}
}

func previewToResponse(preview srs.Preview) []PreviewOption {
	options := make([]PreviewOption, len(preview))
	for q, days := range preview {
		options[q] = PreviewOption{
			Quality:      q,
			IntervalDays: days,
			Label:        srs.FormatInterval(days),
		}
	}
	return options
}

// sessionToResponse snapshots s. Current and preview are set only while the
// session is active.
func sessionToResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{
		ID:           s.ID(),
		CollectionID: s.CollectionID(),
		Phase:        s.Phase(),
		Stats:        s.Stats(),
	}

	card, ok := s.Current()
	if !ok {
		return resp
	}
	schedule := card.State.Schedule()
	resp.Current = &CardResponse{
		Item:         itemToResponse(card.Item),
		IsNew:        card.IsNew,
		Repetitions:  schedule.Repetitions,
		EaseFactor:   schedule.EaseFactor,
		IntervalDays: schedule.IntervalDays,
		Mastery:      srs.MasteryScore(schedule),
	}
	if preview, ok := s.Preview(); ok {
		resp.Preview = previewToResponse(preview)
	}
	return resp
}

// formatNextReview labels when the rated item comes back. Requeued items
// return within the session.
func formatNextReview(outcome session.Outcome) string {
	if outcome.Requeued {
		return "later this session"
	}
	return srs.FormatInterval(outcome.Schedule.IntervalDays)
}
