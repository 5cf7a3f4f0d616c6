package analytics

import (
	"context"
	"sort"
	"sync"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

// storeMock is an in-memory booking.Store implementing the full
// GameFilter semantics, with per-capability error injection.
type storeMock struct {
	users   []booking.UserID
	games   []booking.Game
	reviews map[booking.UserID]map[booking.GameID]booking.Review
	fields  map[booking.FieldID]booking.Field

	usersErr  error
	gamesErr  error
	reviewErr error
	fieldErr  error

	mu              sync.Mutex
	findGamesCalls  int
	findReviewCalls int
}

func (m *storeMock) countCall(n *int) {
	m.mu.Lock()
	*n++
	m.mu.Unlock()
}

func (m *storeMock) FindGames(_ context.Context, filter booking.GameFilter) (map[booking.GameID]booking.Game, error) {
	m.countCall(&m.findGamesCalls)
	if m.gamesErr != nil {
		return nil, m.gamesErr
	}

	matched := make([]booking.Game, 0, len(m.games))
	for _, g := range m.games {
		if filter.StartAfter != nil && g.StartTime.Before(*filter.StartAfter) {
			continue
		}
		if filter.StartBefore != nil && g.StartTime.After(*filter.StartBefore) {
			continue
		}
		if filter.FieldID != "" && g.FieldID != filter.FieldID {
			continue
		}
		if filter.Participant != "" {
			if _, ok := g.Participants()[filter.Participant]; !ok {
				continue
			}
		}
		matched = append(matched, g)
	}

	if filter.SortByStartDesc {
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].StartTime.Equal(matched[j].StartTime) {
				return matched[i].StartTime.After(matched[j].StartTime)
			}
			return matched[i].ID < matched[j].ID
		})
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make(map[booking.GameID]booking.Game, len(matched))
	for _, g := range matched {
		out[g.ID] = g
	}
	return out, nil
}

func (m *storeMock) GetAllUsers(_ context.Context) ([]booking.UserID, error) {
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	return m.users, nil
}

func (m *storeMock) FindReview(_ context.Context, userID booking.UserID, gameID booking.GameID) (booking.Review, error) {
	m.countCall(&m.findReviewCalls)
	if m.reviewErr != nil {
		return booking.Review{}, m.reviewErr
	}
	if r, ok := m.reviews[userID][gameID]; ok {
		return r, nil
	}
	return booking.Review{}, booking.ErrNotFound
}

func (m *storeMock) FindField(_ context.Context, fieldID booking.FieldID) (booking.Field, error) {
	if m.fieldErr != nil {
		return booking.Field{}, m.fieldErr
	}
	if f, ok := m.fields[fieldID]; ok {
		return f, nil
	}
	return booking.Field{}, booking.ErrNotFound
}

// sortedIDs normalizes a result set for comparison.
func sortedIDs(ids []booking.UserID) []booking.UserID {
	out := append([]booking.UserID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
