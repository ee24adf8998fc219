// Package blob stores raw lecture audio in Supabase object storage
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"

	"github.com/jdcastano06/FlowNote/internal/config"
	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

// Storage uploads audio files and hands back public URLs.
type Storage struct {
	client *storage.Client
	cfg    *config.Config
}

// New creates a storage client, or nil when object storage is not
// configured. A nil Storage skips uploads rather than failing them.
func New(cfg *config.Config) *Storage {
	if cfg.StorageURL == "" || cfg.StorageKey == "" {
		return nil
	}
	return &Storage{
		client: storage.NewClient(cfg.StorageURL, cfg.StorageKey, nil),
		cfg:    cfg,
	}
}

// Enabled reports whether uploads will actually be stored.
func (s *Storage) Enabled() bool {
	return s != nil
}

// Upload validates the content type, stores the audio under a unique key
// scoped to the user, and returns its public URL.
func (s *Storage) Upload(ctx context.Context, userID, filename, contentType string, data io.Reader) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if err := ValidateContentType(contentType, s.cfg.AllowedAudioTypes); err != nil {
		return "", err
	}

	log := trace.Logger(ctx)
	key := objectKey(userID, filename)

	start := time.Now()
	if _, err := s.client.UploadFile(s.cfg.StorageBucket, key, data, storage.FileOptions{
		ContentType: &contentType,
	}); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeStorageFailed, "upload audio")
	}

	url := s.client.GetPublicUrl(s.cfg.StorageBucket, key).SignedURL
	log.Info("audio stored",
		"key", key,
		"content_type", contentType,
		"duration_ms", time.Since(start).Milliseconds())

	return url, nil
}

// ValidateContentType checks the MIME type against the allowlist. An empty
// allowlist accepts anything.
func ValidateContentType(contentType string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(normalized, ';'); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	for _, a := range allowed {
		if normalized == strings.ToLower(a) {
			return nil
		}
	}
	return apperrors.Newf(apperrors.CodeInvalidArgument, "unsupported audio type %q", contentType)
}

// objectKey builds a collision-free storage path that keeps the original
// file extension for content-type sniffing on download.
func objectKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), ext)
}
