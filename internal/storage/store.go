package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Bucket names used by the admin console.
const (
	ImageBucket     = "images"
	ThumbnailBucket = "product-thumbnails"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectExists   = errors.New("object already exists")
)

// ObjectInfo describes a stored object as returned by List.
type ObjectInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectStore is the blob-store gateway. Implementations organize objects
// into named buckets and derive stable public URLs from bucket + name.
type ObjectStore interface {
	// Upload stores data under bucket/name. With upsert an existing
	// object is overwritten; without it the call fails with
	// ErrObjectExists.
	Upload(ctx context.Context, bucket, name string, data []byte, upsert bool) error

	// List returns the bucket's objects ascending by creation time.
	List(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// Remove deletes bucket/name, failing with ErrObjectNotFound when
	// the object is absent.
	Remove(ctx context.Context, bucket, name string) error

	// PublicURL derives the object's public URL. Deterministic and
	// stable for the object's lifetime.
	PublicURL(bucket, name string) string
}

// ParseObjectURL recovers bucket and object name from a public URL, i.e.
// its last two path segments. Rows written before the thumbnail bucket
// was settled reference either bucket, so deletes resolve the bucket from
// the URL itself.
func ParseObjectURL(rawURL string) (bucket, name string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", errors.Wrap(err, "parse object url")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", errors.Errorf("object url %q has no bucket segment", rawURL)
	}

	bucket = parts[len(parts)-2]
	name = parts[len(parts)-1]
	if bucket == "" || name == "" {
		return "", "", errors.Errorf("object url %q has empty segments", rawURL)
	}
	return bucket, name, nil
}
