package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"catalog-admin/internal/cache"
	"catalog-admin/internal/imaging"
	"catalog-admin/internal/models"
	"catalog-admin/internal/storage"
)

// RowStore is the row-store capability the workflow needs. The Mongo
// repository implements it; tests substitute an in-memory fake.
type RowStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindAll(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, id string, update bson.M) error
	UpdateVersioned(ctx context.Context, id string, expectedVersion int64, update bson.M) error
	Delete(ctx context.Context, id string) error
}

// ValidationError reports a missing required field before any store call
// is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Service orchestrates the multi-step sequences that keep a catalog row
// and its stored assets consistent, for one product table. It maintains
// an in-memory mirror of the table: an optimization for reads, never
// authoritative — mutations always work against fresh store reads.
type Service struct {
	table   string
	rows    RowStore
	objects storage.ObjectStore
	cache   *cache.Cache
	log     *logrus.Entry

	mu     sync.Mutex
	mirror []*models.Product
}

func NewService(table string, rows RowStore, objects storage.ObjectStore, c *cache.Cache) *Service {
	return &Service{
		table:   table,
		rows:    rows,
		objects: objects,
		cache:   c,
		log:     logrus.WithField("table", table),
	}
}

// List fetches all rows and replaces the mirror wholesale. On failure the
// prior mirror is left untouched.
func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	products, err := s.rows.FindAll(ctx)
	if err != nil {
		s.log.WithError(err).Error("list products failed")
		return nil, err
	}

	s.mu.Lock()
	s.mirror = products
	s.mu.Unlock()

	return products, nil
}

// Mirror returns a copy of the current in-memory list.
func (s *Service) Mirror() []*models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Product, len(s.mirror))
	copy(out, s.mirror)
	return out
}

// Create inserts a row with the three text fields, then uploads the
// processed image and patches image_url. A failure after the insert
// leaves an image-less row rather than rolling back; the operator
// recovers by re-editing.
func (s *Service) Create(ctx context.Context, name, price, description string, image *models.Upload) (*models.Product, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	case strings.TrimSpace(price) == "":
		return nil, &ValidationError{Field: "price", Message: "price is required"}
	case strings.TrimSpace(description) == "":
		return nil, &ValidationError{Field: "description", Message: "description is required"}
	case image == nil || len(image.Data) == 0:
		return nil, &ValidationError{Field: "image", Message: "image is required"}
	}

	product := &models.Product{
		Name:        name,
		Price:       price,
		Description: description,
	}
	if err := s.rows.Create(ctx, product); err != nil {
		s.log.WithError(err).Error("create product failed")
		return nil, err
	}
	id := product.ID.Hex()

	url, err := s.uploadPrimary(ctx, id, image)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("image upload failed")
		return nil, err
	}

	if err := s.rows.Update(ctx, id, bson.M{"image_url": url}); err != nil {
		s.log.WithError(err).WithField("id", id).Error("patch image_url failed")
		return nil, err
	}

	fresh, err := s.rows.FindByID(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("reload created product failed")
		return nil, err
	}

	s.mu.Lock()
	s.mirror = append([]*models.Product{fresh}, s.mirror...)
	s.mu.Unlock()

	return fresh, nil
}

// Update patches the text fields and, when a new image is supplied,
// uploads it under the existing id with a fresh timestamp and patches
// image_url as well. The expected revision guards against concurrent
// edits: a stale stamp fails with repository.ErrVersionConflict.
func (s *Service) Update(ctx context.Context, id, name, price, description string, image *models.Upload, expectedVersion int64) (*models.Product, error) {
	switch {
	case strings.TrimSpace(name) == "":
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	case strings.TrimSpace(price) == "":
		return nil, &ValidationError{Field: "price", Message: "price is required"}
	case strings.TrimSpace(description) == "":
		return nil, &ValidationError{Field: "description", Message: "description is required"}
	}

	update := bson.M{
		"name":        name,
		"price":       price,
		"description": description,
	}

	if image != nil && len(image.Data) > 0 {
		url, err := s.uploadPrimary(ctx, id, image)
		if err != nil {
			s.log.WithError(err).WithField("id", id).Error("image upload failed")
			return nil, err
		}
		update["image_url"] = url
	}

	if err := s.rows.UpdateVersioned(ctx, id, expectedVersion, update); err != nil {
		s.log.WithError(err).WithField("id", id).Error("update product failed")
		return nil, err
	}

	fresh, err := s.rows.FindByID(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("reload updated product failed")
		return nil, err
	}

	s.mu.Lock()
	kept := s.mirror[:0:0]
	for _, p := range s.mirror {
		if p.ID.Hex() != id {
			kept = append(kept, p)
		}
	}
	s.mirror = append([]*models.Product{fresh}, kept...)
	s.mu.Unlock()

	return fresh, nil
}

// Delete reads the row's asset references first, removes every stored
// object it can (absent objects are tolerated), then deletes the row. The
// row is never kept alive because asset cleanup partially failed.
func (s *Service) Delete(ctx context.Context, id string) error {
	product, err := s.rows.FindByID(ctx, id)
	if err != nil {
		return err
	}

	refs := make([]string, 0, 1+len(product.Thumbnails))
	if product.ImageURL != nil && *product.ImageURL != "" {
		refs = append(refs, *product.ImageURL)
	}
	refs = append(refs, product.Thumbnails...)

	for _, ref := range refs {
		bucket, name, err := storage.ParseObjectURL(ref)
		if err != nil {
			s.log.WithError(err).WithField("id", id).Warn("unparseable asset reference, skipping")
			continue
		}
		if err := s.objects.Remove(ctx, bucket, name); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.log.WithError(err).WithFields(logrus.Fields{
				"id":     id,
				"bucket": bucket,
				"object": name,
			}).Warn("asset removal failed")
		}
	}

	if err := s.rows.Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("id", id).Error("delete product failed")
		return err
	}

	s.cache.Delete(thumbnailCacheKey(id))

	if _, err := s.List(ctx); err != nil {
		s.log.WithError(err).Warn("mirror refresh after delete failed")
	}
	return nil
}

// AddThumbnail processes and uploads a thumbnail, then appends its URL to
// the row's collection. The row is re-read first so the append merges
// against the latest stored state, not a possibly-stale mirror.
func (s *Service) AddThumbnail(ctx context.Context, id string, image *models.Upload) ([]string, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, &ValidationError{Field: "image", Message: "image is required"}
	}

	processed := imaging.Process(image.Data, true)
	name := thumbnailObjectName(id, image.Filename)

	if err := s.objects.Upload(ctx, storage.ThumbnailBucket, name, processed, false); err != nil {
		s.log.WithError(err).WithField("id", id).Error("thumbnail upload failed")
		return nil, err
	}
	url := s.objects.PublicURL(storage.ThumbnailBucket, name)

	product, err := s.rows.FindByID(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("reload product for thumbnail failed")
		return nil, err
	}

	thumbnails := append(models.FilterThumbnails(product.Thumbnails), url)
	if err := s.rows.Update(ctx, id, bson.M{"thumbnails": thumbnails}); err != nil {
		s.log.WithError(err).WithField("id", id).Error("patch thumbnails failed")
		return nil, err
	}

	s.storeThumbnailCache(id, thumbnails)
	return thumbnails, nil
}

// RemoveThumbnail deletes the stored object first; a storage failure
// aborts and leaves the row untouched. An already-absent object only
// means the reference is stale, so that case proceeds to the row patch.
func (s *Service) RemoveThumbnail(ctx context.Context, id, url string) ([]string, error) {
	bucket, name, err := storage.ParseObjectURL(url)
	if err != nil {
		return nil, &ValidationError{Field: "url", Message: "not a valid thumbnail url"}
	}

	if err := s.objects.Remove(ctx, bucket, name); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.log.WithError(err).WithFields(logrus.Fields{
			"id":     id,
			"object": name,
		}).Error("thumbnail removal failed")
		return nil, err
	}

	product, err := s.rows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	thumbnails := models.ThumbnailList{}
	for _, u := range models.FilterThumbnails(product.Thumbnails) {
		if u != url {
			thumbnails = append(thumbnails, u)
		}
	}

	if err := s.rows.Update(ctx, id, bson.M{"thumbnails": thumbnails}); err != nil {
		s.log.WithError(err).WithField("id", id).Error("patch thumbnails failed")
		return nil, err
	}

	s.storeThumbnailCache(id, thumbnails)
	return thumbnails, nil
}

// Thumbnails serves the cached list when present, else reads the row and
// repopulates the cache.
func (s *Service) Thumbnails(ctx context.Context, id string) ([]string, error) {
	var cached []string
	if found, err := s.cache.Unmarshal(thumbnailCacheKey(id), &cached); err == nil && found {
		return cached, nil
	}

	product, err := s.rows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	thumbnails := models.FilterThumbnails(product.Thumbnails)
	s.storeThumbnailCache(id, thumbnails)
	return thumbnails, nil
}

func (s *Service) uploadPrimary(ctx context.Context, id string, image *models.Upload) (string, error) {
	processed := imaging.Process(image.Data, false)
	name := primaryObjectName(id, image.Filename)

	if err := s.objects.Upload(ctx, storage.ImageBucket, name, processed, true); err != nil {
		return "", err
	}
	return s.objects.PublicURL(storage.ImageBucket, name), nil
}

func (s *Service) storeThumbnailCache(id string, thumbnails []string) {
	if err := s.cache.Marshal(thumbnailCacheKey(id), thumbnails); err != nil {
		s.log.WithError(err).WithField("id", id).Warn("thumbnail cache write failed")
	}
}

func thumbnailCacheKey(id string) string {
	return "thumbnails_" + id
}

func primaryObjectName(id, filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%d.%s", id, time.Now().UnixMilli(), ext)
}

func thumbnailObjectName(id, filename string) string {
	return fmt.Sprintf("%s_%d_%s", id, time.Now().UnixMilli(), filepath.Base(filename))
}
