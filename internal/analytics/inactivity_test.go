package analytics

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

var testLogger = slog.New(slog.DiscardHandler)

func day(d int, hour, minute int) time.Time {
	return time.Date(2026, 8, d, hour, minute, 0, 0, time.UTC)
}

func TestFindInactiveUsersPartitionsAllUsers(t *testing.T) {
	store := &storeMock{
		users: []booking.UserID{"1", "2", "3", "4", "5"},
		games: []booking.Game{
			{ID: "g1", FieldID: "f1", StartTime: day(20, 18, 0), UserIDs: []booking.UserID{"2", "4", "4"}},
			{ID: "g2", FieldID: "f1", StartTime: day(10, 12, 0), UserIDs: []booking.UserID{"1", "3"}},
		},
	}
	svc := New(store, testLogger, Options{})

	got, err := svc.FindInactiveUsers(context.Background(), day(15, 0, 0))
	if err != nil {
		t.Fatalf("FindInactiveUsers: %v", err)
	}

	want := []booking.UserID{"1", "3", "5"}
	gotSorted := sortedIDs(got)
	if len(gotSorted) != len(want) {
		t.Fatalf("inactive = %v, want %v", gotSorted, want)
	}
	for i := range want {
		if gotSorted[i] != want[i] {
			t.Fatalf("inactive = %v, want %v", gotSorted, want)
		}
	}
}

func TestFindInactiveUsersCutoffIsInclusive(t *testing.T) {
	cutoff := day(15, 10, 0)
	store := &storeMock{
		users: []booking.UserID{"a", "b"},
		games: []booking.Game{
			{ID: "g1", StartTime: cutoff, UserIDs: []booking.UserID{"a"}},
		},
	}
	svc := New(store, testLogger, Options{})

	got, err := svc.FindInactiveUsers(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("FindInactiveUsers: %v", err)
	}
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("inactive = %v, want [b]", got)
	}
}

func TestFindInactiveUsersAllInactiveWhenNoGames(t *testing.T) {
	store := &storeMock{users: []booking.UserID{"a", "b", "c"}}
	svc := New(store, testLogger, Options{})

	got, err := svc.FindInactiveUsers(context.Background(), day(1, 0, 0))
	if err != nil {
		t.Fatalf("FindInactiveUsers: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("inactive = %v, want all 3 users", got)
	}
}

func TestFindInactiveUsersDeduplicatesResult(t *testing.T) {
	store := &storeMock{users: []booking.UserID{"a", "a", "b"}}
	svc := New(store, testLogger, Options{})

	got, err := svc.FindInactiveUsers(context.Background(), day(1, 0, 0))
	if err != nil {
		t.Fatalf("FindInactiveUsers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("inactive = %v, want deduplicated [a b]", got)
	}
}

func TestFindInactiveUsersHonorsCancellation(t *testing.T) {
	store := &storeMock{users: []booking.UserID{"a"}}
	svc := New(store, testLogger, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.FindInactiveUsers(ctx, day(1, 0, 0)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if store.findGamesCalls != 0 {
		t.Fatalf("fetches issued after cancellation: %d", store.findGamesCalls)
	}
}

func TestFindInactiveUsersPropagatesFetchErrors(t *testing.T) {
	boom := errors.New("connection reset")

	store := &storeMock{gamesErr: boom}
	svc := New(store, testLogger, Options{})
	if _, err := svc.FindInactiveUsers(context.Background(), day(1, 0, 0)); !errors.Is(err, boom) {
		t.Fatalf("games fetch error = %v, want wrapped %v", err, boom)
	}

	store = &storeMock{usersErr: boom}
	svc = New(store, testLogger, Options{})
	got, err := svc.FindInactiveUsers(context.Background(), day(1, 0, 0))
	if !errors.Is(err, boom) {
		t.Fatalf("users fetch error = %v, want wrapped %v", err, boom)
	}
	if got != nil {
		t.Fatalf("got partial result %v alongside error", got)
	}
}
