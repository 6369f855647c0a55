package assets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store persists image assets (face photos, QR badges) and hands back a
// reference usable for later retrieval. References are either local file
// paths or https URLs depending on the backend.
type Store interface {
	Save(category, filename string, data []byte) (string, error)
	Open(ref string) (io.ReadCloser, error)
}

// Local writes assets under a base directory, one subdirectory per category.
type Local struct {
	Dir string
}

// NewLocal creates a disk-backed store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

func (l *Local) Save(category, filename string, data []byte) (string, error) {
	dir := filepath.Join(l.Dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("assets: mkdir failed: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write failed: %w", err)
	}
	return path, nil
}

func (l *Local) Open(ref string) (io.ReadCloser, error) {
	// Refuse to read outside the asset root.
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(l.Dir)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("assets: ref outside store: %s", ref)
	}
	return os.Open(abs)
}

// httpClient is shared by URL-backed stores.
var httpClient = &http.Client{Timeout: 30 * time.Second}
