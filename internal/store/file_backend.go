package store

import (
	"os"
	"path/filepath"
)

const stateFileName = "daytoday.json"

// FileBackend stores the blob as a single JSON file under the data dir.
type FileBackend struct {
	path string
}

func NewFileBackend(dataDir string) (*FileBackend, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{path: filepath.Join(dataDir, stateFileName)}, nil
}

func (b *FileBackend) Load() ([]byte, error) {
	blob, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return blob, nil
}

func (b *FileBackend) Save(blob []byte) error {
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}
