// Package postgres implements the booking.Store query surface on top of a
// pgxpool connection pool. The frequent filter shapes run as prepared
// statements registered by internal/db; anything else falls back to a
// dynamically built query.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldmark/booking-analytics/internal/booking"
)

// Store is a read-only booking.Store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ booking.Store = (*Store)(nil)

// FindGames returns all games matching the filter, keyed by game ID.
func (s *Store) FindGames(ctx context.Context, filter booking.GameFilter) (map[booking.GameID]booking.Game, error) {
	rows, err := s.queryGames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	games := make(map[booking.GameID]booking.Game)
	for rows.Next() {
		var (
			g       booking.Game
			userIDs []string
		)
		if err := rows.Scan(&g.ID, &g.FieldID, &g.Location, &g.StartTime, &userIDs); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.UserIDs = make([]booking.UserID, len(userIDs))
		for i, id := range userIDs {
			g.UserIDs[i] = booking.UserID(id)
		}
		games[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read games: %w", err)
	}
	return games, nil
}

// queryGames dispatches the common filter shapes to prepared statements.
func (s *Store) queryGames(ctx context.Context, filter booking.GameFilter) (pgx.Rows, error) {
	switch {
	case filter.Participant != "" && filter.SortByStartDesc && filter.Limit > 0 &&
		filter.FieldID == "" && filter.StartAfter == nil && filter.StartBefore == nil:
		return s.pool.Query(ctx, "games_by_participant_recent", string(filter.Participant), filter.Limit)

	case filter.FieldID != "" && filter.StartAfter != nil && filter.StartBefore != nil &&
		filter.Participant == "" && !filter.SortByStartDesc && filter.Limit == 0:
		return s.pool.Query(ctx, "games_on_field_between", string(filter.FieldID), *filter.StartAfter, *filter.StartBefore)

	case filter.StartAfter != nil && filter.StartBefore == nil && filter.FieldID == "" &&
		filter.Participant == "" && !filter.SortByStartDesc && filter.Limit == 0:
		return s.pool.Query(ctx, "games_since", *filter.StartAfter)
	}
	sql, args := buildGamesQuery(filter)
	return s.pool.Query(ctx, sql, args...)
}

func buildGamesQuery(filter booking.GameFilter) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT id, field_id, location, start_time, user_ids FROM games")

	var conds []string
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.StartAfter != nil {
		add("start_time >= $%d", *filter.StartAfter)
	}
	if filter.StartBefore != nil {
		add("start_time <= $%d", *filter.StartBefore)
	}
	if filter.FieldID != "" {
		add("field_id = $%d", string(filter.FieldID))
	}
	if filter.Participant != "" {
		add("$%d = ANY(user_ids)", string(filter.Participant))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if filter.SortByStartDesc {
		b.WriteString(" ORDER BY start_time DESC, id ASC")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	return b.String(), args
}

// GetAllUsers returns every known user identifier.
func (s *Store) GetAllUsers(ctx context.Context) ([]booking.UserID, error) {
	rows, err := s.pool.Query(ctx, "all_user_ids")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []booking.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, booking.UserID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	return users, nil
}

// FindReview returns the review a user left for a game.
func (s *Store) FindReview(ctx context.Context, userID booking.UserID, gameID booking.GameID) (booking.Review, error) {
	var r booking.Review
	err := s.pool.QueryRow(ctx, "review_by_user_game", string(userID), string(gameID)).
		Scan(&r.ID, &r.GameID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Review{}, booking.ErrNotFound
	}
	if err != nil {
		return booking.Review{}, fmt.Errorf("query review %s/%s: %w", userID, gameID, err)
	}
	return r, nil
}

// FindField returns a field's configuration including its availability slots.
func (s *Store) FindField(ctx context.Context, fieldID booking.FieldID) (booking.Field, error) {
	var f booking.Field
	err := s.pool.QueryRow(ctx, "field_by_id", string(fieldID)).
		Scan(&f.ID, &f.Name, &f.Description, &f.Location)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Field{}, booking.ErrNotFound
	}
	if err != nil {
		return booking.Field{}, fmt.Errorf("query field %s: %w", fieldID, err)
	}

	rows, err := s.pool.Query(ctx, "field_slots", string(fieldID))
	if err != nil {
		return booking.Field{}, fmt.Errorf("query slots for field %s: %w", fieldID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var slot booking.AvailabilitySlot
		if err := rows.Scan(&slot.From, &slot.To); err != nil {
			return booking.Field{}, fmt.Errorf("scan slot: %w", err)
		}
		f.Availability = append(f.Availability, slot)
	}
	if err := rows.Err(); err != nil {
		return booking.Field{}, fmt.Errorf("read slots: %w", err)
	}
	return f, nil
}
