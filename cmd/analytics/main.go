// Command analytics is the Fieldmark booking analytics CLI.
//
// Usage:
//
//	fieldmark-analytics inactive --since 2026-08-01
//	fieldmark-analytics low-ratings --threshold 3.2 --games 5
//	fieldmark-analytics unused-slots --start 2026-08-01 --end 2026-08-31 --field f1 --field f2
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldmark/booking-analytics/internal/analytics"
	"github.com/fieldmark/booking-analytics/internal/booking"
	"github.com/fieldmark/booking-analytics/internal/config"
	"github.com/fieldmark/booking-analytics/internal/db"
	"github.com/fieldmark/booking-analytics/internal/storage/postgres"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "fieldmark-analytics",
		Short: "Fieldmark booking analytics CLI",
	}

	root.AddCommand(inactiveCmd())
	root.AddCommand(lowRatingsCmd())
	root.AddCommand(unusedSlotsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// inactive command
// --------------------------------------------------------------------------

func inactiveCmd() *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "inactive",
		Short: "List users with no game participation since a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := parseDate(since)
			if err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			return runAnalytics(func(ctx context.Context, svc *analytics.Service) error {
				users, err := svc.FindInactiveUsers(ctx, cutoff)
				if err != nil {
					return err
				}
				logger.Info("Inactive users computed", "since", cutoff.Format(time.RFC3339), "count", len(users))
				return printJSON(map[string]interface{}{
					"since":    cutoff.Format(time.RFC3339),
					"count":    len(users),
					"user_ids": users,
				})
			})
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Cutoff date (RFC3339 or YYYY-MM-DD)")
	cmd.MarkFlagRequired("since")
	return cmd
}

// --------------------------------------------------------------------------
// low-ratings command
// --------------------------------------------------------------------------

func lowRatingsCmd() *cobra.Command {
	var (
		threshold float64
		games     int
	)
	cmd := &cobra.Command{
		Use:   "low-ratings",
		Short: "List users whose recent average review rating is below a threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(func(ctx context.Context, svc *analytics.Service) error {
				users, err := svc.FindLowRatingUsers(ctx, threshold, games)
				if err != nil {
					return err
				}
				logger.Info("Low-rating users computed", "threshold", threshold, "games", games, "count", len(users))
				return printJSON(map[string]interface{}{
					"threshold":  threshold,
					"last_games": games,
					"count":      len(users),
					"user_ids":   users,
				})
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 3.0, "Exclusive upper bound on average rating")
	cmd.Flags().IntVar(&games, "games", 5, "How many most recent games to consider")
	return cmd
}

// --------------------------------------------------------------------------
// unused-slots command
// --------------------------------------------------------------------------

func unusedSlotsCmd() *cobra.Command {
	var (
		start, end        string
		fields            []string
		inclusiveBoundary bool
	)
	cmd := &cobra.Command{
		Use:   "unused-slots",
		Short: "Count availability slots with no game scheduled in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDate(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			endDate, err := parseDate(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			fieldIDs := make([]booking.FieldID, len(fields))
			for i, f := range fields {
				fieldIDs[i] = booking.FieldID(f)
			}
			return runAnalyticsWith(inclusiveBoundary, func(ctx context.Context, svc *analytics.Service) error {
				count, err := svc.CountUnusedSlots(ctx, startDate, endDate, fieldIDs)
				if err != nil {
					return err
				}
				logger.Info("Unused slots computed", "fields", len(fieldIDs), "count", count)
				return printJSON(map[string]interface{}{
					"start":        startDate.Format(time.RFC3339),
					"end":          endDate.Format(time.RFC3339),
					"field_ids":    fields,
					"unused_slots": count,
				})
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Range start (RFC3339 or YYYY-MM-DD), inclusive")
	cmd.Flags().StringVar(&end, "end", "", "Range end (RFC3339 or YYYY-MM-DD), inclusive")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field ID to check (repeatable)")
	cmd.Flags().BoolVar(&inclusiveBoundary, "inclusive-boundary", false,
		"Count a game starting exactly at a slot's from time as using the slot")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

// --------------------------------------------------------------------------
// Shared wiring
// --------------------------------------------------------------------------

func runAnalytics(fn func(context.Context, *analytics.Service) error) error {
	return runAnalyticsWith(false, fn)
}

func runAnalyticsWith(inclusiveBoundary bool, fn func(context.Context, *analytics.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if inclusiveBoundary {
		cfg.SlotBoundaryInclusive = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	boundary := analytics.BoundaryStrict
	if cfg.SlotBoundaryInclusive {
		boundary = analytics.BoundaryInclusiveStart
	}
	svc := analytics.New(postgres.New(pool.Pool), logger, analytics.Options{
		Workers:      cfg.AnalyticsWorkers,
		FetchTimeout: cfg.AnalyticsFetchTimeout,
		Boundary:     boundary,
	})

	start := time.Now()
	if err := fn(ctx, svc); err != nil {
		return err
	}
	logger.Info("Done", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not RFC3339 or YYYY-MM-DD", raw)
}
