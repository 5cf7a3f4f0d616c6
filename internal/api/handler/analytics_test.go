package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldmark/booking-analytics/internal/analytics"
	"github.com/fieldmark/booking-analytics/internal/booking"
	"github.com/fieldmark/booking-analytics/internal/cache"
	"github.com/fieldmark/booking-analytics/internal/config"
)

// fakeStore is a minimal booking.Store for handler tests.
type fakeStore struct {
	users   []booking.UserID
	games   map[booking.GameID]booking.Game
	reviews map[booking.UserID]map[booking.GameID]booking.Review
	fields  map[booking.FieldID]booking.Field
	err     error
}

func (f *fakeStore) FindGames(_ context.Context, filter booking.GameFilter) (map[booking.GameID]booking.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[booking.GameID]booking.Game)
	for id, g := range f.games {
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
		out[id] = g
	}
	return out, nil
}

func (f *fakeStore) GetAllUsers(_ context.Context) ([]booking.UserID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeStore) FindReview(_ context.Context, userID booking.UserID, gameID booking.GameID) (booking.Review, error) {
	if r, ok := f.reviews[userID][gameID]; ok {
		return r, nil
	}
	return booking.Review{}, booking.ErrNotFound
}

func (f *fakeStore) FindField(_ context.Context, fieldID booking.FieldID) (booking.Field, error) {
	if f2, ok := f.fields[fieldID]; ok {
		return f2, nil
	}
	return booking.Field{}, booking.ErrNotFound
}

func newTestHandler(store booking.Store) *Handler {
	svc := analytics.New(store, slog.New(slog.DiscardHandler), analytics.Options{})
	return New(nil, svc, cache.New(false), &config.Config{})
}

func TestGetInactiveUsers(t *testing.T) {
	store := &fakeStore{
		users: []booking.UserID{"1", "2", "3", "4", "5"},
		games: map[booking.GameID]booking.Game{
			"g1": {ID: "g1", StartTime: time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC),
				UserIDs: []booking.UserID{"2", "4"}},
		},
	}
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/inactive-users?since=2026-08-01", nil)
	rr := httptest.NewRecorder()
	h.GetInactiveUsers(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var body struct {
		Count   int      `json:"count"`
		UserIDs []string `json:"user_ids"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 3 {
		t.Fatalf("count = %d, want 3 (body %s)", body.Count, rr.Body)
	}
	want := []string{"1", "3", "5"}
	for i, id := range want {
		if body.UserIDs[i] != id {
			t.Fatalf("user_ids = %v, want %v", body.UserIDs, want)
		}
	}
}

func TestGetInactiveUsersRequiresSince(t *testing.T) {
	h := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/inactive-users", nil)
	rr := httptest.NewRecorder()
	h.GetInactiveUsers(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestGetLowRatingUsersInvalidGamesParam(t *testing.T) {
	h := newTestHandler(&fakeStore{})

	for _, target := range []string{
		"/api/v1/analytics/low-rating-users?threshold=3&games=abc",
		"/api/v1/analytics/low-rating-users?threshold=3&games=0",
		"/api/v1/analytics/low-rating-users?games=5",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		h.GetLowRatingUsers(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rr.Code)
		}
	}
}

func TestGetUnusedSlots(t *testing.T) {
	store := &fakeStore{
		fields: map[booking.FieldID]booking.Field{
			"f1": {ID: "f1", Availability: []booking.AvailabilitySlot{
				{From: 600, To: 660}, {From: 660, To: 720},
			}},
		},
		games: map[booking.GameID]booking.Game{
			"g1": {ID: "g1", FieldID: "f1",
				StartTime: time.Date(2026, 8, 23, 11, 30, 0, 0, time.UTC)},
		},
	}
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/analytics/unused-slots?start=2026-08-23&end=2026-08-24&fields=f1", nil)
	rr := httptest.NewRecorder()
	h.GetUnusedSlots(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var body struct {
		UnusedSlots int `json:"unused_slots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.UnusedSlots != 1 {
		t.Fatalf("unused_slots = %d, want 1", body.UnusedSlots)
	}
}

func TestStoreFailureMapsToBadGateway(t *testing.T) {
	h := newTestHandler(&fakeStore{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/inactive-users?since=2026-08-01", nil)
	rr := httptest.NewRecorder()
	h.GetInactiveUsers(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Code != "DATA_ACCESS_ERROR" {
		t.Fatalf("error code = %q, want DATA_ACCESS_ERROR", resp.Error.Code)
	}
}

func TestAnalyticsResponsesAreCachedWithETags(t *testing.T) {
	store := &fakeStore{users: []booking.UserID{"1"}}
	svc := analytics.New(store, slog.New(slog.DiscardHandler), analytics.Options{})
	h := New(nil, svc, cache.New(true), &config.Config{})

	target := "/api/v1/analytics/inactive-users?since=2026-08-01"

	rr := httptest.NewRecorder()
	h.GetInactiveUsers(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rr.Code)
	}
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag on first response")
	}

	// Second request hits the cache.
	rr = httptest.NewRecorder()
	h.GetInactiveUsers(rr, httptest.NewRequest(http.MethodGet, target, nil))
	if got := rr.Header().Get("X-Cache"); got != "HIT" {
		t.Fatalf("X-Cache = %q, want HIT", got)
	}

	// Conditional request returns 304.
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("If-None-Match", etag)
	rr = httptest.NewRecorder()
	h.GetInactiveUsers(rr, req)
	if rr.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", rr.Code)
	}
}
