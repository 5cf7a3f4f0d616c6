// Package booking defines the read-only domain model for the facility
// booking data the analytics layer aggregates over: users, games, reviews,
// and fields with their availability slots. Entities are owned and
// lifecycled by the external store; nothing in this module creates or
// mutates them.
package booking

import "time"

// UserID, GameID, and FieldID are opaque store-assigned identifiers.
type (
	UserID  string
	GameID  string
	FieldID string
)

// Game is a scheduled match on a field. UserIDs is the participant list as
// stored; it may contain duplicates and must be treated as a set for
// membership purposes.
type Game struct {
	ID        GameID
	FieldID   FieldID
	Location  string
	StartTime time.Time
	UserIDs   []UserID
}

// Participants returns the deduplicated participant set of the game.
func (g Game) Participants() map[UserID]struct{} {
	set := make(map[UserID]struct{}, len(g.UserIDs))
	for _, id := range g.UserIDs {
		set[id] = struct{}{}
	}
	return set
}

// Review is a post-game rating left by one participant. At most one review
// exists per (user, game) pair.
type Review struct {
	ID        string
	GameID    GameID
	UserID    UserID
	Rating    int // 1–5 stars
	Comment   string
	CreatedAt time.Time
}

// AvailabilitySlot is one bookable interval of a field's daily schedule,
// expressed as minutes from midnight. From < To is assumed.
type AvailabilitySlot struct {
	From int
	To   int
}

// Contains reports whether the clock time of t falls strictly inside the
// open interval (From, To). A game starting exactly on a slot boundary does
// not occupy the slot under this check; see analytics.SlotBoundary for the
// inclusive variant.
func (s AvailabilitySlot) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m > s.From && m < s.To
}

// ContainsInclusive is like Contains but counts a game starting exactly at
// From as occupying the slot.
func (s AvailabilitySlot) ContainsInclusive(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= s.From && m < s.To
}

// Field is a physical venue with its configured availability slots.
type Field struct {
	ID           FieldID
	Name         string
	Description  string
	Location     string
	Availability []AvailabilitySlot
}
