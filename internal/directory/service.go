package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"qrattend/internal/assets"
)

// ErrMissingFields is returned when a registration omits name, roll or branch.
var ErrMissingFields = errors.New("name, roll number and branch are required")

// Service handles user registration and lookup. Registration generates the
// QR badge whose payload is the derived identity token.
type Service struct {
	repo   Repository
	assets assets.Store
}

// NewService creates a directory service.
func NewService(repo Repository, store assets.Store) *Service {
	return &Service{repo: repo, assets: store}
}

// Lookup resolves an identity token to a user, or nil when unregistered.
func (s *Service) Lookup(ctx context.Context, id string) (*User, error) {
	return s.repo.Lookup(ctx, id)
}

// List returns all registered users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Register creates a user, stores the optional face image and generates the
// QR badge. Registering an existing identity returns the existing record with
// exists=true and changes nothing, so a re-submitted form is harmless.
func (s *Service) Register(ctx context.Context, name, roll, branch string, faceImage []byte) (User, bool, error) {
	name = strings.TrimSpace(name)
	roll = strings.TrimSpace(roll)
	branch = strings.TrimSpace(branch)
	if name == "" || roll == "" || branch == "" {
		return User{}, false, ErrMissingFields
	}

	id := UserID(roll, name)
	if existing, err := s.repo.Lookup(ctx, id); err != nil {
		return User{}, false, fmt.Errorf("directory lookup failed: %w", err)
	} else if existing != nil {
		return *existing, true, nil
	}

	u := User{
		ID:         id,
		Name:       name,
		RollNumber: roll,
		Branch:     branch,
		CreatedAt:  time.Now(),
	}

	if len(faceImage) > 0 {
		path, err := s.assets.Save("faces", id+".jpg", faceImage)
		if err != nil {
			return User{}, false, fmt.Errorf("save face image failed: %w", err)
		}
		u.ImagePath = path
	}

	png, err := qrcode.Encode(id, qrcode.Medium, 512)
	if err != nil {
		return User{}, false, fmt.Errorf("qr encode failed: %w", err)
	}
	qrPath, err := s.assets.Save("qrcodes", id+".png", png)
	if err != nil {
		return User{}, false, fmt.Errorf("save qr badge failed: %w", err)
	}
	u.QRPath = qrPath

	if err := s.repo.Insert(ctx, u); err != nil {
		return User{}, false, fmt.Errorf("insert user failed: %w", err)
	}
	return u, false, nil
}
