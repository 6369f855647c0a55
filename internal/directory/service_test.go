package directory

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/assets"
)

func TestUserID(t *testing.T) {
	assert.Equal(t, "101_Asha", UserID("101", "Asha"))
	assert.Equal(t, "101_Asha_Rao", UserID("101", "Asha Rao"))
	assert.Equal(t, "10_1_Asha", UserID("10 1", "Asha"))
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryRepository(), assets.NewLocal(t.TempDir()))
}

func TestRegister_CreatesUserAndQRBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, exists, err := svc.Register(ctx, "Asha", "101", "CSE", nil)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "101_Asha", u.ID)
	assert.Empty(t, u.ImagePath)

	require.NotEmpty(t, u.QRPath)
	info, err := os.Stat(u.QRPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	got, err := svc.Lookup(ctx, "101_Asha")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)
}

func TestRegister_DuplicateReturnsExisting(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, _, err := svc.Register(ctx, "Asha", "101", "CSE", nil)
	require.NoError(t, err)

	second, exists, err := svc.Register(ctx, "Asha", "101", "EEE", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	// the original record wins; the re-submitted branch is ignored
	assert.Equal(t, first.Branch, second.Branch)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegister_SavesFaceImage(t *testing.T) {
	svc := newTestService(t)

	u, _, err := svc.Register(context.Background(), "Ravi", "102", "ECE", []byte("not-really-a-jpeg"))
	require.NoError(t, err)
	require.NotEmpty(t, u.ImagePath)

	data, err := os.ReadFile(u.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("not-really-a-jpeg"), data)
}

func TestRegister_MissingFields(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Register(context.Background(), " ", "101", "CSE", nil)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, _, err = svc.Register(context.Background(), "Asha", "", "CSE", nil)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestLookup_Unregistered(t *testing.T) {
	svc := newTestService(t)

	u, err := svc.Lookup(context.Background(), "ghost-id")
	require.NoError(t, err)
	assert.Nil(t, u)
}
