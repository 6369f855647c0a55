package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in a mutex-guarded map, keyed by (user, day).
// Used in dev mode and tests; the lock is the critical section that makes
// InsertIfAbsent atomic.
type MemoryStore struct {
	mu      sync.Mutex
	records map[memoryKey]Record
}

type memoryKey struct {
	userID string
	day    string
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memoryKey]Record)}
}

func (s *MemoryStore) InsertIfAbsent(ctx context.Context, rec Record) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{userID: rec.UserID, day: rec.Day}
	if existing, ok := s.records[key]; ok {
		return existing, false, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[key] = rec
	return rec, true, nil
}

func (s *MemoryStore) ListByDay(ctx context.Context, day string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for key, rec := range s.records {
		if key.day == day {
			res = append(res, rec)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].TimeOfDay < res[j].TimeOfDay })
	return res, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Day != res[j].Day {
			return res[i].Day > res[j].Day
		}
		return res[i].TimeOfDay < res[j].TimeOfDay
	})
	return res, nil
}
