package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fieldmark/booking-analytics/internal/analytics"
	"github.com/fieldmark/booking-analytics/internal/api/respond"
	"github.com/fieldmark/booking-analytics/internal/booking"
	"github.com/fieldmark/booking-analytics/internal/cache"
)

// GetInactiveUsers lists users with no game participation since a date.
// @Summary Inactive users
// @Description Returns all users who have not played any game starting at or after the given date.
// @Tags analytics
// @Produce json
// @Param since query string true "Cutoff date (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /analytics/inactive-users [get]
func (h *Handler) GetInactiveUsers(w http.ResponseWriter, r *http.Request) {
	since, err := parseTimeParam(r, "since")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		users, err := h.analytics.FindInactiveUsers(ctx, since)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"since":    since.Format(time.RFC3339),
			"count":    len(users),
			"user_ids": sortedUserIDs(users),
		}, nil
	})
}

// GetLowRatingUsers lists users with a low average review rating.
// @Summary Low-rating users
// @Description Returns all users whose average review rating over their most recent N games is strictly below the threshold.
// @Tags analytics
// @Produce json
// @Param threshold query number true "Exclusive upper bound on average rating"
// @Param games query int true "How many most recent games to consider (>= 1)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /analytics/low-rating-users [get]
func (h *Handler) GetLowRatingUsers(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.ParseFloat(r.URL.Query().Get("threshold"), 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "threshold must be a number")
		return
	}
	games, err := strconv.Atoi(r.URL.Query().Get("games"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "games must be an integer")
		return
	}

	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		users, err := h.analytics.FindLowRatingUsers(ctx, threshold, games)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"threshold":  threshold,
			"last_games": games,
			"count":      len(users),
			"user_ids":   sortedUserIDs(users),
		}, nil
	})
}

// GetUnusedSlots counts availability slots with no game scheduled.
// @Summary Unused availability slots
// @Description Counts availability slots across the given fields that had no game scheduled in them during the date range.
// @Tags analytics
// @Produce json
// @Param start query string true "Range start (RFC3339 or YYYY-MM-DD), inclusive"
// @Param end query string true "Range end (RFC3339 or YYYY-MM-DD), inclusive"
// @Param fields query string true "Comma-separated field IDs"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /analytics/unused-slots [get]
func (h *Handler) GetUnusedSlots(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	fieldIDs := parseFieldIDs(r.URL.Query().Get("fields"))

	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		count, err := h.analytics.CountUnusedSlots(ctx, start, end, fieldIDs)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"start":        start.Format(time.RFC3339),
			"end":          end.Format(time.RFC3339),
			"field_ids":    fieldIDs,
			"unused_slots": count,
		}, nil
	})
}

// serveCached runs compute behind the response cache: cache hits short-cut
// to a 304 or the stored payload, misses are marshaled, stored, and served.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, compute func(context.Context) (interface{}, error)) {
	key := r.URL.RequestURI()

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, cache.TTLAnalytics, true)
		return
	}

	result, err := compute(r.Context())
	if err != nil {
		writeAnalyticsError(w, err)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to encode response")
		return
	}
	etag := h.cache.Set(key, data, cache.TTLAnalytics)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, cache.TTLAnalytics, false)
}

// writeAnalyticsError maps analytics/store errors onto API status codes.
func writeAnalyticsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidArgument):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, booking.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respond.WriteError(w, http.StatusGatewayTimeout, "TIMEOUT", "Computation deadline exceeded")
	case errors.Is(err, context.Canceled):
		respond.WriteError(w, http.StatusServiceUnavailable, "CANCELLED", "Computation cancelled")
	default:
		respond.WriteErrorDetail(w, http.StatusBadGateway, "DATA_ACCESS_ERROR",
			"Underlying data fetch failed", err.Error())
	}
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, errors.New(name + " is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New(name + " must be RFC3339 or YYYY-MM-DD")
}

func parseFieldIDs(raw string) []booking.FieldID {
	var ids []booking.FieldID
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, booking.FieldID(trimmed))
		}
	}
	return ids
}

func sortedUserIDs(ids []booking.UserID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	sort.Strings(out)
	return out
}
