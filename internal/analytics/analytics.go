// Package analytics implements the read-only booking analytics
// computations: inactive-user detection, low-rating-user detection, and
// unused availability slot counting. Each computation is a pure function of
// its arguments and the store's current contents; the store handle is
// injected, never global.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

// ErrInvalidArgument reports a malformed input detected before any fetch
// is issued (non-positive game count, inverted date range).
var ErrInvalidArgument = errors.New("analytics: invalid argument")

// SlotBoundary selects how a game start sitting exactly on a slot boundary
// is treated by CountUnusedSlots.
type SlotBoundary int

const (
	// BoundaryStrict counts a slot as used only when a game starts strictly
	// inside its (from, to) interval. A game starting exactly at a boundary
	// does not occupy the slot. This mirrors the booking system's historical
	// behavior and is the default.
	BoundaryStrict SlotBoundary = iota

	// BoundaryInclusiveStart also counts a game starting exactly at the
	// slot's from time as occupying it.
	BoundaryInclusiveStart
)

const (
	defaultWorkers      = 8
	defaultFetchTimeout = 30 * time.Second
)

// Options tunes a Service. The zero value selects defaults.
type Options struct {
	// Workers bounds the per-user and per-field fan-out.
	Workers int

	// FetchTimeout bounds each computation when the caller's context has no
	// deadline of its own. Zero selects the default; negative disables.
	FetchTimeout time.Duration

	// Boundary selects the slot-overlap comparison for CountUnusedSlots.
	Boundary SlotBoundary
}

// Service runs the analytics computations against a booking store.
type Service struct {
	store    booking.Store
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	boundary SlotBoundary
}

// New creates a Service. logger may be nil, in which case slog.Default()
// is used.
func New(store booking.Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	timeout := opts.FetchTimeout
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	return &Service{
		store:    store,
		logger:   logger,
		workers:  workers,
		timeout:  timeout,
		boundary: opts.Boundary,
	}
}

// opContext applies the service's fetch timeout unless the caller already
// set a deadline.
func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
