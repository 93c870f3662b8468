package core

import (
	"context"
	"time"
)

// Artwork source tags. API artworks are fetched fresh from the museum
// collection and never persisted; user artworks live in the store.
const (
	SourceAPI  = "api"
	SourceUser = "user"
)

type (
	// Artwork represents one displayable piece, either museum-sourced or
	// user-submitted.
	Artwork struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Artist      string    `json:"artist"`
		Year        string    `json:"year"`
		Medium      string    `json:"medium"`
		Description string    `json:"description"`
		ImageURL    string    `json:"imageUrl"` // remote URL for api artworks, data: URL for user submissions
		Source      string    `json:"source"`   // "api" | "user"
		UserID      string    `json:"userId,omitempty"`
		CreatedAt   time.Time `json:"createdAt,omitempty"`
	}

	// ArtworkStore defines the persistence layer for user-submitted artworks.
	ArtworkStore interface {
		// Append stores a new submission. Implementations must not let two
		// concurrent appends drop each other.
		Append(ctx context.Context, artwork *Artwork) error

		// ListAll returns every stored submission. Records that fail to
		// decode are skipped, not surfaced as errors.
		ListAll(ctx context.Context) ([]*Artwork, error)
	}
)
