package store

import (
	"fmt"
	"os"
	"path/filepath"

	"docqa/internal/port"
)

var _ port.IndexBackend = (*DiskBackend)(nil)

// DiskBackend keeps the index in <dir>/index.db. The directory belongs to the
// index: Remove deletes it entirely.
type DiskBackend struct {
	dir string
}

func NewDiskBackend(dir string) *DiskBackend {
	return &DiskBackend{dir: dir}
}

func (b *DiskBackend) Dir() string {
	return b.dir
}

func (b *DiskBackend) Path() string {
	return filepath.Join(b.dir, "index.db")
}

func (b *DiskBackend) Create() (port.IndexStore, error) {
	return NewBoltStore(b.Path())
}

func (b *DiskBackend) Open() (port.IndexStore, error) {
	return OpenBoltStore(b.Path())
}

func (b *DiskBackend) Remove() error {
	if err := os.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("failed to remove index directory %s: %w", b.dir, err)
	}
	return nil
}
