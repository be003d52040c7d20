package store

import "sync"

// Backend persists the store's entire state as one opaque blob. The store
// reads it once at construction and writes it back after every mutating
// operation; the backend never sees inside the bytes.
type Backend interface {
	// Load returns the current blob, or (nil, nil) when nothing has been
	// saved yet.
	Load() ([]byte, error)
	Save(blob []byte) error
}

// MemoryBackend keeps the blob in memory. Used in tests and when the
// storage driver is set to "memory".
type MemoryBackend struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.blob == nil {
		return nil, nil
	}
	out := make([]byte, len(b.blob))
	copy(out, b.blob)
	return out, nil
}

func (b *MemoryBackend) Save(blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blob = make([]byte, len(blob))
	copy(b.blob, blob)
	return nil
}
