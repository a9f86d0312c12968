package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes uploads to a flat directory served by the static file
// server. Writes go to a temp file first and are renamed into place, so a
// reference is only ever returned for a fully written file.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a LocalStore rooted at dir. References are formed by
// joining baseURL (e.g. "/uploads") with the stored filename. The directory
// is created lazily on first Put.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put stores the stream under filename and returns its reference. MkdirAll
// tolerates a pre-existing directory, so concurrent first uploads are safe.
func (s *LocalStore) Put(_ context.Context, filename, _ string, r io.Reader) (*Object, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("sync upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close upload: %w", err)
	}

	// Rename is the commit point: until it succeeds the upload is invisible
	// and no reference exists for it.
	final := filepath.Join(s.dir, filename)
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("move upload into place: %w", err)
	}

	return &Object{URL: s.baseURL + "/" + filename}, nil
}
