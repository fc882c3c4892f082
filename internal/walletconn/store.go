package walletconn

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dexgate/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var storeJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore persists the silent-reconnect blob as a small JSON file. Writes
// go through a temp file and rename so a crash never leaves a torn blob.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted connection. An absent or unreadable blob is
// "not found", not an error; persistence is a convenience, never a
// hard dependency.
func (s *FileStore) Load() (entity.PersistedConnection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.PersistedConnection{}, false, nil
		}
		return entity.PersistedConnection{}, false, fmt.Errorf("read connection state: %w", err)
	}

	var persisted entity.PersistedConnection
	if err := storeJSON.Unmarshal(raw, &persisted); err != nil {
		// Corrupt blob: discard instead of failing every startup.
		_ = os.Remove(s.path)
		return entity.PersistedConnection{}, false, nil
	}
	return persisted, true, nil
}

func (s *FileStore) Save(persisted entity.PersistedConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	raw, err := storeJSON.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("marshal connection state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write connection state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit connection state: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear connection state: %w", err)
	}
	return nil
}
