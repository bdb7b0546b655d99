package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DiskStore is an ObjectStore backed by a directory tree: one
// subdirectory per bucket, one file per object. It stands in for the
// managed blob service and serves its objects over the static file route.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage root")
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *DiskStore) Upload(ctx context.Context, bucket, name string, data []byte, upsert bool) error {
	path, err := s.objectPath(bucket, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create bucket dir")
	}

	if !upsert {
		if _, err := os.Stat(path); err == nil {
			return ErrObjectExists
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write object %s/%s", bucket, name)
	}
	return nil
}

func (s *DiskStore) List(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []ObjectInfo{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "list bucket %s", bucket)
	}

	infos := make([]ObjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, ObjectInfo{
			Name:      e.Name(),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

func (s *DiskStore) Remove(ctx context.Context, bucket, name string) error {
	path, err := s.objectPath(bucket, name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return errors.Wrapf(err, "remove object %s/%s", bucket, name)
	}
	return nil
}

func (s *DiskStore) PublicURL(bucket, name string) string {
	return s.baseURL + "/" + bucket + "/" + name
}

// Root is the directory the static file route serves from.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) bucketPath(bucket string) (string, error) {
	if bucket == "" || filepath.Base(bucket) != bucket || bucket == "." || bucket == ".." {
		return "", errors.Errorf("invalid bucket name %q", bucket)
	}
	return filepath.Join(s.root, bucket), nil
}

func (s *DiskStore) objectPath(bucket, name string) (string, error) {
	dir, err := s.bucketPath(bucket)
	if err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", errors.Errorf("invalid object name %q", name)
	}
	return filepath.Join(dir, name), nil
}
