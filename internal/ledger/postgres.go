package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Store is the ledger's storage primitive. InsertIfAbsent must be atomic:
// when two callers race on the same (user, day), exactly one insert wins and
// the other caller sees the winner's row.
type Store interface {
	InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error)
	ListByDay(ctx context.Context, day string) ([]Record, error)
	ListAll(ctx context.Context) ([]Record, error)
}

// PostgresStore persists attendance records in Postgres. The unique
// constraint on (user_id, day) makes the check-and-append race-safe.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// InsertIfAbsent appends rec unless a record already exists for the same
// (user_id, day). Returns the stored record and whether this call inserted it.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, user_id, name, roll_number, branch, image_path, day, time_of_day)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id, day) DO NOTHING
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.Name, rec.RollNumber, rec.Branch, rec.ImagePath, rec.Day, rec.TimeOfDay)
	err := row.Scan(&rec.CreatedAt)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, err
	}

	// Conflict: another call already holds this (user, day). Read it back.
	existing, err := s.getByUserDay(ctx, rec.UserID, rec.Day)
	if err != nil {
		return Record{}, false, err
	}
	return existing, false, nil
}

func (s *PostgresStore) getByUserDay(ctx context.Context, userID, day string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, roll_number, branch, image_path, day, time_of_day, created_at
		FROM attendance_records
		WHERE user_id = $1 AND day = $2
	`, userID, day)
	return scanRecord(row)
}

// ListByDay returns all records for one calendar day.
func (s *PostgresStore) ListByDay(ctx context.Context, day string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, roll_number, branch, image_path, day, time_of_day, created_at
		FROM attendance_records
		WHERE day = $1
		ORDER BY time_of_day
	`, day)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ListAll returns every record, newest day first.
func (s *PostgresStore) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, roll_number, branch, image_path, day, time_of_day, created_at
		FROM attendance_records
		ORDER BY day DESC, time_of_day
	`)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.RollNumber, &rec.Branch,
		&rec.ImagePath, &rec.Day, &rec.TimeOfDay, &rec.CreatedAt)
	return rec, err
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
