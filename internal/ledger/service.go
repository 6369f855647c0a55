package ledger

import (
	"context"
	"time"

	"qrattend/internal/directory"
)

// Directory is the user lookup the ledger consults before recording.
type Directory interface {
	Lookup(ctx context.Context, id string) (*directory.User, error)
}

// Service coordinates identity resolution and the idempotent append.
type Service struct {
	dir   Directory
	store Store
}

// NewService creates a ledger service.
func NewService(dir Directory, store Store) *Service {
	return &Service{dir: dir, store: store}
}

// RecordIfAbsent records attendance for identity at now, at most once per
// local calendar day. The result is always a classified Outcome; failures
// never escape as errors so a scanning loop can keep running.
func (s *Service) RecordIfAbsent(ctx context.Context, identity string, now time.Time) Outcome {
	user, err := s.dir.Lookup(ctx, identity)
	if err != nil {
		return Outcome{Kind: OutcomeWriteFailed, Err: err}
	}
	if user == nil {
		return Outcome{Kind: OutcomeNotFound}
	}

	rec := Record{
		UserID:     user.ID,
		Name:       user.Name,
		RollNumber: user.RollNumber,
		Branch:     user.Branch,
		ImagePath:  user.ImagePath,
		Day:        DayOf(now),
		TimeOfDay:  now.Local().Format(TimeLayout),
		CreatedAt:  now,
	}
	stored, inserted, err := s.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return Outcome{Kind: OutcomeWriteFailed, Err: err}
	}
	if !inserted {
		return Outcome{Kind: OutcomeDuplicate, Record: &stored}
	}
	return Outcome{Kind: OutcomeSuccess, Record: &stored}
}

// ListByDay exposes the store listing for the data views.
func (s *Service) ListByDay(ctx context.Context, day string) ([]Record, error) {
	return s.store.ListByDay(ctx, day)
}

// ListAll exposes the full ledger for the data views.
func (s *Service) ListAll(ctx context.Context) ([]Record, error) {
	return s.store.ListAll(ctx)
}
