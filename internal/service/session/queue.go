package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// DefaultNewItemLimit caps how many never-reviewed items a session introduces.
const DefaultNewItemLimit = 20

// Card is one queue position: an item and the learning state it is rated from.
type Card struct {
	Item  domain.Item          `json:"item"`
	State domain.LearningState `json:"state"`
	IsNew bool                 `json:"is_new"`
}

// BuildQueue orders a session's cards: items that are due at now, earliest
// due first, followed by up to newItemLimit never-reviewed items in creation
// order. Items that have a state but are not yet due are left out.
func BuildQueue(
	items []domain.Item,
	states map[uuid.UUID]domain.LearningState,
	userID uuid.UUID,
	now time.Time,
	newItemLimit int,
) []Card {
	var due, fresh []Card
	for _, item := range items {
		state, ok := states[item.ID]
		if !ok {
			fresh = append(fresh, Card{
				Item:  item,
				State: domain.NewLearningState(userID, item.ID, item.CollectionID, now),
				IsNew: true,
			})
			continue
		}
		if state.IsDue(now) {
			due = append(due, Card{Item: item, State: state})
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].State.DueAt.Before(due[j].State.DueAt)
	})
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Item.CreatedAt.Before(fresh[j].Item.CreatedAt)
	})

	if newItemLimit < 0 {
		newItemLimit = 0
	}
	if len(fresh) > newItemLimit {
		fresh = fresh[:newItemLimit]
	}

	queue := make([]Card, 0, len(due)+len(fresh))
	queue = append(queue, due...)
	return append(queue, fresh...)
}
