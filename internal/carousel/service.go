package carousel

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"catalog-admin/internal/models"
	"catalog-admin/internal/storage"
)

// MaxImages bounds every carousel bucket.
const MaxImages = 5

// Buckets are the homepage carousel namespaces.
var Buckets = []string{"carousel", "carousel2"}

var (
	ErrCarouselFull  = errors.Errorf("carousel already holds %d images", MaxImages)
	ErrUnknownBucket = errors.New("unknown carousel")
)

// Image is a carousel entry: a stored object plus its public URL. The
// bucket listing is the source of truth; there is no row-store record.
type Image struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Service manages the bounded carousel collections. Uploads are stored
// as-is; carousel images are not run through the pre-processor.
type Service struct {
	objects storage.ObjectStore
	log     *logrus.Entry
}

func NewService(objects storage.ObjectStore) *Service {
	return &Service{
		objects: objects,
		log:     logrus.WithField("component", "carousel"),
	}
}

func ValidBucket(bucket string) bool {
	for _, b := range Buckets {
		if b == bucket {
			return true
		}
	}
	return false
}

// List returns the bucket's images ascending by creation time.
func (s *Service) List(ctx context.Context, bucket string) ([]Image, error) {
	if !ValidBucket(bucket) {
		return nil, ErrUnknownBucket
	}

	infos, err := s.objects.List(ctx, bucket)
	if err != nil {
		s.log.WithError(err).WithField("bucket", bucket).Error("list images failed")
		return nil, err
	}

	images := make([]Image, 0, len(infos))
	for _, info := range infos {
		images = append(images, Image{
			Name:      info.Name,
			URL:       s.objects.PublicURL(bucket, info.Name),
			Size:      info.Size,
			CreatedAt: info.CreatedAt,
		})
	}
	return images, nil
}

// Add uploads a new image unless the bucket is already at its bound; the
// refusal happens before any storage write.
func (s *Service) Add(ctx context.Context, bucket string, image *models.Upload) ([]Image, error) {
	if !ValidBucket(bucket) {
		return nil, ErrUnknownBucket
	}
	if image == nil || len(image.Data) == 0 {
		return nil, errors.New("no image supplied")
	}

	current, err := s.List(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if len(current) >= MaxImages {
		return nil, ErrCarouselFull
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(image.Filename))
	if err := s.objects.Upload(ctx, bucket, name, image.Data, true); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"bucket": bucket,
			"object": name,
		}).Error("upload failed")
		return nil, err
	}

	return s.List(ctx, bucket)
}

// Remove deletes the named image and returns the refreshed listing.
func (s *Service) Remove(ctx context.Context, bucket, name string) ([]Image, error) {
	if !ValidBucket(bucket) {
		return nil, ErrUnknownBucket
	}

	if err := s.objects.Remove(ctx, bucket, name); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"bucket": bucket,
			"object": name,
		}).Error("delete failed")
		return nil, err
	}

	return s.List(ctx, bucket)
}
