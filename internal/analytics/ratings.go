package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

// FindLowRatingUsers returns every user whose average review rating over
// their most recent lastNGames games is strictly below threshold.
//
// Games the user never reviewed do not count toward the average, and a user
// with zero qualifying reviews among the selected games is excluded from
// the result entirely rather than treated as rating zero. lastNGames must
// be at least 1.
//
// Per-user lookups run concurrently, bounded by the service's worker
// limit. A fetch failure for any user aborts the whole computation; no
// partial result is returned.
func (s *Service) FindLowRatingUsers(ctx context.Context, threshold float64, lastNGames int) ([]booking.UserID, error) {
	if lastNGames < 1 {
		return nil, fmt.Errorf("%w: lastNGames must be >= 1, got %d", ErrInvalidArgument, lastNGames)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users, err := s.store.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all users: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var (
		mu  sync.Mutex
		low []booking.UserID
	)
	seen := make(map[booking.UserID]struct{}, len(users))
	for _, userID := range users {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		g.Go(func() error {
			// Stop issuing fetches once the computation is cancelled or a
			// sibling failed.
			if err := ctx.Err(); err != nil {
				return err
			}
			avg, reviewed, err := s.recentAverageRating(ctx, userID, lastNGames)
			if err != nil {
				return fmt.Errorf("user %s: %w", userID, err)
			}
			if reviewed == 0 {
				// No qualifying reviews; an average cannot be computed.
				return nil
			}
			if avg < threshold {
				mu.Lock()
				low = append(low, userID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return low, nil
}

// recentAverageRating computes the mean rating over the reviews the user
// left for their lastN most recent games, returning the mean and how many
// reviewed games contributed to it.
func (s *Service) recentAverageRating(ctx context.Context, userID booking.UserID, lastN int) (float64, int, error) {
	games, err := s.store.FindGames(ctx, booking.GameFilter{
		Participant:     userID,
		SortByStartDesc: true,
		Limit:           lastN,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("find recent games: %w", err)
	}

	sum, reviewed := 0, 0
	for gameID := range games {
		review, err := s.store.FindReview(ctx, userID, gameID)
		if errors.Is(err, booking.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, 0, fmt.Errorf("find review for game %s: %w", gameID, err)
		}
		sum += review.Rating
		reviewed++
	}
	if reviewed == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(reviewed), reviewed, nil
}
