package store

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/3-lines-studio/hydrate/internal/adapters/fs"
	"github.com/3-lines-studio/hydrate/internal/core"
)

// DiskStore keeps bundles in a single directory.
type DiskStore struct {
	dir string
	fs  *fs.OSFileSystem
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir, fs: fs.NewOSFileSystem()}
}

func (s *DiskStore) Location(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *DiskStore) Exists(_ context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	return s.fs.FileExists(s.Location(name)), nil
}

func (s *DiskStore) Put(_ context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := s.fs.WriteFileAtomic(s.Location(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write bundle %s: %w", name, err)
	}
	return nil
}

func (s *DiskStore) List(_ context.Context) ([]Object, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var objects []Object
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != core.BundleExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		objects = append(objects, Object{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	slices.SortFunc(objects, func(a, b Object) int { return strings.Compare(a.Name, b.Name) })
	return objects, nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid bundle name %q", name)
	}
	return nil
}
