// Package storage keeps uploaded documents and pictures. Only object keys
// are stored on records; readers get a short-lived URL instead.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// Key prefixes for the two kinds of upload.
const (
	CredentialPrefix = "prcIDs"
	ProfilePicPrefix = "profilePics"
	StaffPhotoPrefix = "staffPhotos"
)

type Storage interface {
	Put(ctx context.Context, key string, content io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete succeeds when the key does not exist.
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// ObjectKey builds "<prefix>/<unix-ms>_<filename>".
func ObjectKey(prefix, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", prefix, now.UnixMilli(), sanitizeFilename(filename))
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

func sanitizeFilename(filename string) string {
	filename = strings.TrimSpace(filenameReplacer.Replace(filename))
	if filename == "" {
		return "upload"
	}
	return filename
}
