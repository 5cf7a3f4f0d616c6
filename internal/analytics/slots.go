package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

// CountUnusedSlots returns how many availability slots across the given
// fields had no game scheduled in them during [start, end], both bounds
// inclusive. A slot counts as used when some game on its field starts
// inside the slot interval; the boundary comparison is controlled by the
// service's SlotBoundary option and defaults to strict (a game starting
// exactly on a slot boundary does not occupy it).
//
// Unknown field IDs are logged and skipped rather than aborting the whole
// count. An empty fieldIDs sequence yields 0. start must not be after end.
//
// Fields are processed concurrently, bounded by the service's worker limit.
func (s *Service) CountUnusedSlots(ctx context.Context, start, end time.Time, fieldIDs []booking.FieldID) (int, error) {
	if start.After(end) {
		return 0, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidArgument, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if len(fieldIDs) == 0 {
		return 0, nil
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var unused atomic.Int64
	for _, fieldID := range fieldIDs {
		g.Go(func() error {
			// Stop issuing fetches once the computation is cancelled or a
			// sibling failed.
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := s.countFieldUnused(ctx, fieldID, start, end)
			if errors.Is(err, booking.ErrNotFound) {
				s.logger.Warn("Skipping unknown field", "field_id", fieldID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("field %s: %w", fieldID, err)
			}
			unused.Add(int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(unused.Load()), nil
}

func (s *Service) countFieldUnused(ctx context.Context, fieldID booking.FieldID, start, end time.Time) (int, error) {
	field, err := s.store.FindField(ctx, fieldID)
	if err != nil {
		return 0, err
	}

	games, err := s.store.FindGames(ctx, booking.GameFilter{
		FieldID:     fieldID,
		StartAfter:  &start,
		StartBefore: &end,
	})
	if err != nil {
		return 0, fmt.Errorf("find games: %w", err)
	}

	unused := 0
	for _, slot := range field.Availability {
		if !s.slotUsed(slot, games) {
			unused++
		}
	}
	return unused, nil
}

func (s *Service) slotUsed(slot booking.AvailabilitySlot, games map[booking.GameID]booking.Game) bool {
	for _, game := range games {
		if s.boundary == BoundaryInclusiveStart {
			if slot.ContainsInclusive(game.StartTime) {
				return true
			}
		} else if slot.Contains(game.StartTime) {
			return true
		}
	}
	return false
}
