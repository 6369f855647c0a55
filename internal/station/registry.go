// Package station tracks the scanner stations allowed to post frames, plus
// their refresh tokens for rotation checks.
package station

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// Registry persists station metadata.
type Registry interface {
	Register(ctx context.Context, stationID string) error
	SaveRefreshToken(ctx context.Context, stationID, token string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, token string) error
}

// PostgresRegistry stores stations in Postgres.
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry creates a registry.
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// Register ensures a station record exists.
func (r *PostgresRegistry) Register(ctx context.Context, stationID string) error {
	if stationID == "" {
		return errors.New("station id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stations (station_id)
		VALUES ($1)
		ON CONFLICT (station_id) DO NOTHING
	`, stationID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *PostgresRegistry) SaveRefreshToken(ctx context.Context, stationID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, station_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, stationID, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *PostgresRegistry) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

// MemoryRegistry is the dev-mode registry.
type MemoryRegistry struct {
	mu       sync.Mutex
	stations map[string]struct{}
	tokens   map[string]string
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		stations: make(map[string]struct{}),
		tokens:   make(map[string]string),
	}
}

func (r *MemoryRegistry) Register(ctx context.Context, stationID string) error {
	if stationID == "" {
		return errors.New("station id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations[stationID] = struct{}{}
	return nil
}

func (r *MemoryRegistry) SaveRefreshToken(ctx context.Context, stationID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = stationID
	return nil
}

func (r *MemoryRegistry) RevokeRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}
