package booking

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store lookups when no entity matches the
// filter. Callers distinguish it from transport failures with errors.Is.
var ErrNotFound = errors.New("booking: not found")

// GameFilter narrows a FindGames query. Zero-value fields are ignored.
type GameFilter struct {
	// StartAfter and StartBefore bound the game start time, both inclusive.
	StartAfter  *time.Time
	StartBefore *time.Time

	// FieldID restricts to games on a single field.
	FieldID FieldID

	// Participant restricts to games whose participant set contains the user.
	Participant UserID

	// SortByStartDesc orders results most-recent-first. Ties on start time
	// are broken by game ID ascending so limited queries are stable.
	SortByStartDesc bool

	// Limit caps the number of games returned; 0 means no cap.
	Limit int
}

// Store is the read-only query surface the analytics computations consume.
// Implementations live outside this package (see storage/postgres); tests
// substitute in-memory fakes.
type Store interface {
	// FindGames returns all games matching the filter, keyed by game ID.
	// When the filter requests sorting and limiting, the limit applies to
	// the sorted sequence even though the returned map itself is unordered.
	FindGames(ctx context.Context, filter GameFilter) (map[GameID]Game, error)

	// GetAllUsers returns the identifiers of every known user.
	GetAllUsers(ctx context.Context) ([]UserID, error)

	// FindReview returns the review the user wrote for the game, or
	// ErrNotFound when the pair has no review.
	FindReview(ctx context.Context, userID UserID, gameID GameID) (Review, error)

	// FindField returns a field's configuration, or ErrNotFound for an
	// unknown field ID.
	FindField(ctx context.Context, fieldID FieldID) (Field, error)
}
