package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Overlay is the filesystem a single build runs against: an in-memory
// writable layer in front of a read-only view of the real filesystem.
// Lookups check the memory layer first. Nothing written through an Overlay
// reaches the disk.
type Overlay struct {
	root  string
	mem   afero.Fs
	union afero.Fs
}

func NewOverlay(root string) *Overlay {
	mem := afero.NewMemMapFs()
	base := afero.NewReadOnlyFs(afero.NewOsFs())
	return &Overlay{
		root:  filepath.Clean(root),
		mem:   mem,
		union: afero.NewCopyOnWriteFs(base, mem),
	}
}

func (o *Overlay) Root() string {
	return o.root
}

// Abs resolves path against the overlay root.
func (o *Overlay) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(o.root, path)
}

func (o *Overlay) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(o.union, o.Abs(path))
}

func (o *Overlay) ReadDir(path string) ([]iofs.DirEntry, error) {
	infos, err := afero.ReadDir(o.union, o.Abs(path))
	if err != nil {
		return nil, err
	}
	entries := make([]iofs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = iofs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

func (o *Overlay) FileExists(path string) bool {
	ok, err := afero.Exists(o.union, o.Abs(path))
	return err == nil && ok
}

func (o *Overlay) WriteFile(path string, data []byte, perm iofs.FileMode) error {
	abs := o.Abs(path)
	if err := o.mem.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create overlay dir for %s: %w", abs, err)
	}
	return afero.WriteFile(o.mem, abs, data, perm)
}

func (o *Overlay) MkdirAll(path string, perm iofs.FileMode) error {
	return o.mem.MkdirAll(o.Abs(path), perm)
}

// Remove deletes a staged file. Files of the read-only layer cannot be
// removed.
func (o *Overlay) Remove(path string) error {
	abs := o.Abs(path)
	if !o.IsStaged(abs) {
		return &os.PathError{Op: "remove", Path: abs, Err: errors.ErrUnsupported}
	}
	return o.mem.Remove(abs)
}

// Staged returns the contents of path if it was written to the memory layer.
func (o *Overlay) Staged(path string) ([]byte, bool) {
	data, err := afero.ReadFile(o.mem, o.Abs(path))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (o *Overlay) IsStaged(path string) bool {
	info, err := o.mem.Stat(o.Abs(path))
	return err == nil && !info.IsDir()
}
