package directory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
)

// Repository stores user records. Lookup returns (nil, nil) when the identity
// is not registered.
type Repository interface {
	Lookup(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, u User) error
	List(ctx context.Context) ([]User, error)
}

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Lookup returns a single user by identity.
func (r *PostgresRepository) Lookup(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, name, roll_number, branch, image_path, qr_path, created_at
		FROM users WHERE user_id = $1
	`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.RollNumber, &u.Branch, &u.ImagePath, &u.QRPath, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Insert writes a new user record.
func (r *PostgresRepository) Insert(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, name, roll_number, branch, image_path, qr_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, u.RollNumber, u.Branch, u.ImagePath, u.QRPath, u.CreatedAt)
	return err
}

// List returns all users ordered by roll number.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, name, roll_number, branch, image_path, qr_path, created_at
		FROM users
		ORDER BY roll_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.RollNumber, &u.Branch, &u.ImagePath, &u.QRPath, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// MemoryRepository is a mutex-guarded map for dev mode and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository creates an empty in-memory repo.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

func (r *MemoryRepository) Lookup(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return errors.New("user already exists")
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].RollNumber < users[j].RollNumber })
	return users, nil
}
