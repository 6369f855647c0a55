package assets

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveAndOpen(t *testing.T) {
	store := NewLocal(t.TempDir())

	ref, err := store.Save("qrcodes", "101_Asha.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir, "qrcodes", "101_Asha.png"), ref)

	rc, err := store.Open(ref)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestLocal_OpenRefusesOutsideRoot(t *testing.T) {
	store := NewLocal(t.TempDir())

	_, err := store.Open("/etc/passwd")
	assert.Error(t, err)

	_, err = store.Open(filepath.Join(store.Dir, "..", "elsewhere"))
	assert.Error(t, err)
}
