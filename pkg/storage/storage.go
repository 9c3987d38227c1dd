// Package storage stores catalog images in an object store. Backends share
// the Store interface; the configured driver picks one at startup.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
	"github.com/angelmondragon/storefront-backend/pkg/storage/local"
	"github.com/angelmondragon/storefront-backend/pkg/storage/s3"
)

// Store writes and removes blobs by key.
type Store interface {
	// Put stores content under key and returns its public URL.
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored is the result of a successful Put.
type Stored struct {
	URL string
	Key string
}

// New builds the Store selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case config.StorageDriverGCS:
		return gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	case config.StorageDriverS3:
		return s3.NewClient(ctx, cfg.S3, logg)
	case config.StorageDriverLocal, "":
		return local.New(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFilename reduces a client supplied name to a key-safe base name.
func SafeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	base = unsafeFilenameChars.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "file"
	}
	return base
}

// ObjectKey builds "{prefix}/{ownerID}/{uuid}-{unix}-{filename}".
func ObjectKey(prefix string, ownerID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s/%s-%d-%s",
		strings.Trim(prefix, "/"),
		ownerID,
		uuid.NewString(),
		time.Now().Unix(),
		SafeFilename(filename),
	)
}

// PutUpload stores upload under a fresh key for ownerID.
func PutUpload(ctx context.Context, store Store, prefix string, ownerID uuid.UUID, upload Upload) (Stored, error) {
	key := ObjectKey(prefix, ownerID, upload.Filename)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := store.Put(ctx, key, upload.Body, contentType)
	if err != nil {
		return Stored{}, fmt.Errorf("put %s: %w", key, err)
	}
	return Stored{URL: url, Key: key}, nil
}

// DeleteAll attempts every delete and returns the combined failures. Empty
// keys are skipped.
func DeleteAll(ctx context.Context, store Store, keys ...string) error {
	var errs error
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errs
}
