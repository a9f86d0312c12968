// Package media turns untrusted image uploads into durable, addressable
// references. A Store backend is selected once at startup from configuration
// (local filesystem or S3) and injected into the upload handler; handlers
// never branch on the deployment environment per call.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pedcare/pedcare/internal/config"
)

// Sentinel errors.
var (
	ErrNotImage            = errors.New("not an image")
	ErrTooLarge            = errors.New("too large")
	ErrBackendUnconfigured = errors.New("no durable media backend configured")
)

// MaxUploadSize is the maximum accepted upload size in bytes (5 MiB).
const MaxUploadSize = 5 * 1024 * 1024

// Object describes a stored upload. URL is the stable public reference that
// callers attach to a patient record. DownloadURL is set when the backend
// provides a distinct, possibly expiring, download link.
type Object struct {
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// Store is the storage capability fulfilled by each backend. Put must return
// only after the backend confirms the object is durably stored; a reference
// for a partially written object must never be handed out.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (*Object, error)
}

// NewStore selects and constructs the storage backend for this deployment.
// An ephemeral-filesystem deployment without a remote backend is refused
// here, before any upload is accepted.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch backend := cfg.ResolvedMediaBackend(); backend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local":
		if cfg.EphemeralFS {
			return nil, fmt.Errorf("%w: filesystem is ephemeral and MEDIA_S3_BUCKET is not set", ErrBackendUnconfigured)
		}
		return NewLocalStore(cfg.UploadsDir, cfg.UploadsBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnconfigured, backend)
	}
}

// NewFilename derives a collision-resistant stored name from the original
// upload name, keeping the extension: patient-<nanosecond timestamp><ext>.
func NewFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	// A trailing dot yields a bare "." from Ext; treat it as missing too.
	if len(ext) <= 1 {
		ext = ".jpg"
	}
	return fmt.Sprintf("patient-%d%s", time.Now().UnixNano(), ext)
}
