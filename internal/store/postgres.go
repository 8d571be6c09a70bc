// Package store implements the pipeline's record-store interface on
// Postgres. All queries run through prepared statements registered by
// internal/db.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omkrako/phiz/internal/notifications"
)

// Postgres is a pgxpool-backed notifications.Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// New creates a Postgres store over an existing pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// GetUser returns a user record by id, or notifications.ErrNotFound.
func (s *Postgres) GetUser(ctx context.Context, id string) (notifications.UserRecord, error) {
	var (
		u    notifications.UserRecord
		role string
	)
	err := s.pool.QueryRow(ctx, "get_user", id).Scan(
		&u.ID, &role, &u.Name, &u.Token, &u.LastActivityAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return notifications.UserRecord{}, fmt.Errorf("user %s: %w", id, notifications.ErrNotFound)
	}
	if err != nil {
		return notifications.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	u.Role = notifications.Role(role)
	return u, nil
}

// UsersByRole returns every user with the given role.
func (s *Postgres) UsersByRole(ctx context.Context, role notifications.Role) ([]notifications.UserRecord, error) {
	rows, err := s.pool.Query(ctx, "users_by_role", string(role))
	if err != nil {
		return nil, fmt.Errorf("query users by role: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// UsersInactiveBefore returns users of the given role whose last activity is
// strictly older than cutoff. Users without a recorded activity timestamp
// never match.
func (s *Postgres) UsersInactiveBefore(ctx context.Context, role notifications.Role, cutoff time.Time) ([]notifications.UserRecord, error) {
	rows, err := s.pool.Query(ctx, "users_inactive_before", string(role), cutoff)
	if err != nil {
		return nil, fmt.Errorf("query inactive users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ResultsSince returns a user's results created at or after since.
func (s *Postgres) ResultsSince(ctx context.Context, userID string, since time.Time) ([]notifications.ResultRecord, error) {
	rows, err := s.pool.Query(ctx, "results_since", userID, since)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []notifications.ResultRecord
	for rows.Next() {
		var r notifications.ResultRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Score, &r.TotalUnits, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanUsers(rows pgx.Rows) ([]notifications.UserRecord, error) {
	var users []notifications.UserRecord
	for rows.Next() {
		var (
			u    notifications.UserRecord
			role string
		)
		if err := rows.Scan(&u.ID, &role, &u.Name, &u.Token, &u.LastActivityAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = notifications.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}
