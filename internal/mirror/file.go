package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore keeps each blob in its own file under a base directory. Set
// writes to a temporary file and renames, so a crash never leaves a partial
// blob behind.
type FileBlobStore struct {
	dir string
}

func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob store directory not set")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FileBlobStore{dir: dir}, nil
}

// Get implements BlobStore.
func (s *FileBlobStore) Get(key string) ([]byte, bool, error) {
	blob, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %q: %w", key, err)
	}
	return blob, true, nil
}

// Set implements BlobStore.
func (s *FileBlobStore) Set(key string, blob []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("commit blob %q: %w", key, err)
	}
	return nil
}

func (s *FileBlobStore) path(key string) string {
	// Keys are fixed identifiers, not user input, but keep them filesystem-safe.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

// MemoryBlobStore is an in-memory BlobStore for tests.
type MemoryBlobStore struct {
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Get implements BlobStore.
func (s *MemoryBlobStore) Get(key string) ([]byte, bool, error) {
	blob, ok := s.blobs[key]
	return blob, ok, nil
}

// Set implements BlobStore.
func (s *MemoryBlobStore) Set(key string, blob []byte) error {
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}
