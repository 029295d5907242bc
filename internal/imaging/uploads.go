package imaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UploadStore persists normalized uploads so the frontend can serve
// them back under /uploads/. Files are transient; Sweep removes them
// once they outlive maxAge.
type UploadStore struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger
}

// NewUploadStore creates the upload directory if needed.
func NewUploadStore(dir string, maxAge time.Duration, logger *slog.Logger) (*UploadStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, maxAge: maxAge, logger: logger}, nil
}

// Save writes the image under a fresh UUID name and returns the
// URL path ("/uploads/{id}.jpg") the façade hands back to clients.
func (u *UploadStore) Save(img *Image) (string, error) {
	name := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(u.dir, name), img.JPEG, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return "/uploads/" + name, nil
}

// Dir returns the backing directory, for static file serving.
func (u *UploadStore) Dir() string {
	return u.dir
}

// Sweep deletes uploads older than the configured max age and returns
// how many were removed.
func (u *UploadStore) Sweep() int {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		u.logger.Warn("upload sweep failed", "error", err)
		return 0
	}

	cutoff := time.Now().Add(-u.maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(u.dir, e.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		u.logger.Debug("swept expired uploads", "removed", removed)
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (u *UploadStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				u.Sweep()
			}
		}
	}()
}
