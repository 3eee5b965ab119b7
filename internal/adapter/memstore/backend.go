package memstore

import (
	"sync"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.IndexBackend = (*Backend)(nil)

// Backend hands out MemoryStores. Nothing survives the process.
type Backend struct {
	mu      sync.Mutex
	current *MemoryStore
}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Create() (port.IndexStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = NewMemoryStore()
	return b.current, nil
}

func (b *Backend) Open() (port.IndexStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return nil, domain.ErrNoIndex
	}
	if _, err := b.current.GetIndexInfo(); err != nil {
		return nil, err
	}
	return b.current, nil
}

func (b *Backend) Remove() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	return nil
}
