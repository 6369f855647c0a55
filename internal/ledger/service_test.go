package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/directory"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	repo := directory.NewMemoryRepository()
	require.NoError(t, repo.Insert(context.Background(), directory.User{
		ID:         "101_Asha",
		Name:       "Asha",
		RollNumber: "101",
		Branch:     "CSE",
		ImagePath:  "faces/101_Asha.jpg",
	}))
	store := NewMemoryStore()
	return NewService(repo, store), store
}

func TestRecordIfAbsent_Idempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	t1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	t2 := time.Date(2024, 5, 1, 11, 30, 0, 0, time.Local)

	first := svc.RecordIfAbsent(ctx, "101_Asha", t1)
	require.Equal(t, OutcomeSuccess, first.Kind)
	require.NotNil(t, first.Record)
	assert.Equal(t, "2024-05-01", first.Record.Day)
	assert.Equal(t, "09:00:00", first.Record.TimeOfDay)
	assert.Equal(t, "Asha", first.Record.Name)

	second := svc.RecordIfAbsent(ctx, "101_Asha", t2)
	require.Equal(t, OutcomeDuplicate, second.Kind)
	require.NotNil(t, second.Record)
	// the original timestamp is preserved, not overwritten
	assert.Equal(t, "09:00:00", second.Record.TimeOfDay)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordIfAbsent_CrossDayAdmission(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	d1 := svc.RecordIfAbsent(ctx, "101_Asha", time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local))
	d2 := svc.RecordIfAbsent(ctx, "101_Asha", time.Date(2024, 5, 2, 9, 0, 0, 0, time.Local))
	assert.Equal(t, OutcomeSuccess, d1.Kind)
	assert.Equal(t, OutcomeSuccess, d2.Kind)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRecordIfAbsent_UnknownIdentity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	out := svc.RecordIfAbsent(ctx, "ghost-id", time.Now())
	assert.Equal(t, OutcomeNotFound, out.Kind)
	assert.Nil(t, out.Record)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordIfAbsent_ConcurrentRace(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	const n = 16
	outcomes := make([]Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = svc.RecordIfAbsent(ctx, "101_Asha", now)
		}(i)
	}
	wg.Wait()

	var successes, duplicates int
	for _, out := range outcomes {
		switch out.Kind {
		case OutcomeSuccess:
			successes++
		case OutcomeDuplicate:
			duplicates++
		default:
			t.Fatalf("unexpected outcome: %v", out.Kind)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, duplicates)

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, "2024-05-01", DayOf(time.Date(2024, 5, 1, 23, 59, 59, 0, time.Local)))
}
