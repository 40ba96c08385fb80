package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item-specific validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = errors.New("item ID cannot be empty")

	// ErrItemCollectionIDEmpty is returned when an item's collection ID is empty or nil.
	ErrItemCollectionIDEmpty = errors.New("item collection ID cannot be empty")

	// ErrItemTermEmpty is returned when the front side of an item is blank.
	ErrItemTermEmpty = errors.New("item term cannot be empty")

	// ErrItemMeaningEmpty is returned when the back side of an item is blank.
	ErrItemMeaningEmpty = errors.New("item meaning cannot be empty")
)

// Item is an immutable piece of vocabulary content belonging to a collection.
// Term is shown on the front of the card and Meaning on the back.
type Item struct {
	ID            uuid.UUID `json:"id"`
	CollectionID  uuid.UUID `json:"collection_id"`
	Term          string    `json:"term"`
	Meaning       string    `json:"meaning"`
	Pronunciation string    `json:"pronunciation,omitempty"`
	Example       string    `json:"example,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewItem creates a new Item in the given collection.
// Returns an error if validation fails.
func NewItem(collectionID uuid.UUID, term, meaning string) (*Item, error) {
	item := &Item{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Term:         strings.TrimSpace(term),
		Meaning:      strings.TrimSpace(meaning),
		CreatedAt:    time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the Item has valid data.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.CollectionID == uuid.Nil {
		return ErrItemCollectionIDEmpty
	}

	if strings.TrimSpace(i.Term) == "" {
		return ErrItemTermEmpty
	}

	if strings.TrimSpace(i.Meaning) == "" {
		return ErrItemMeaningEmpty
	}

	return nil
}
