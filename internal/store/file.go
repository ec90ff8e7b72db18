package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists each key as one pretty-printed JSON file under dir,
// grounded in the teacher's plain os.ReadFile/os.WriteFile persistence shape
// (no embedded KV engine). Keys are sanitized into filenames and matched
// case-insensitively, matching spec.md §6's tolerant settings/rule-cache
// contract. A missing directory never fails NewFileStore: it is created
// lazily on first Put, and a corrupt individual file only makes Get for that
// key return its JSON decode error rather than aborting the whole store.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a FileStore rooted at dir. dir is created lazily;
// NewFileStore never touches the filesystem itself.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Get(ctx context.Context, key string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolveExisting(key)
	if err != nil {
		return ErrNotFound
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ErrNotFound
	}
	return unmarshalInto(raw, out)
}

func (s *FileStore) Put(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(key), raw, 0o644)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.resolveExisting(key)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	return keys, nil
}

// path builds the on-disk path for key. The file name keeps key's case; Get
// and Delete find an existing file case-insensitively via resolveExisting.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// resolveExisting finds key's file on disk case-insensitively, since a
// caller may Put "sessionId" and Get "SessionID" and expect the same record.
func (s *FileStore) resolveExisting(key string) (string, error) {
	want := sanitizeKey(key)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if strings.EqualFold(name, want) {
			return filepath.Join(s.dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}

func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
