package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

// FindInactiveUsers returns every known user who has not participated in
// any game starting at or after since. The result is duplicate-free and in
// no particular order; callers should treat it as a set. On any fetch
// failure no partial result is returned.
func (s *Service) FindInactiveUsers(ctx context.Context, since time.Time) ([]booking.UserID, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	games, err := s.store.FindGames(ctx, booking.GameFilter{StartAfter: &since})
	if err != nil {
		return nil, fmt.Errorf("find games since %s: %w", since.Format(time.RFC3339), err)
	}

	active := make(map[booking.UserID]struct{})
	for _, game := range games {
		for id := range game.Participants() {
			active[id] = struct{}{}
		}
	}

	all, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all users: %w", err)
	}

	inactive := make([]booking.UserID, 0, len(all))
	seen := make(map[booking.UserID]struct{}, len(all))
	for _, id := range all {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := active[id]; !ok {
			inactive = append(inactive, id)
		}
	}
	return inactive, nil
}
