// Package storage holds the client's credential store: the single session
// token that gates access to protected views. It also builds the HTTP client
// used to reach the API.
package storage

import (
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// TokenKey is the only key written to the durable session file.
const TokenKey = "token"

// ErrEmptyToken is returned by Set when asked to store an empty token.
var ErrEmptyToken = errors.New("empty session token")

// Store is the credential store contract. At most one token is resident;
// absence means unauthenticated.
type Store interface {
	Set(token string) error
	Get() (string, bool)
	Clear() error
}

// FileStore keeps the token in memory and mirrors it to a JSON file so it
// survives restarts. Expiry is not tracked; it is discovered through a
// rejected API call.
type FileStore struct {
	path  string
	aead  cipher.AEAD
	log   *zap.Logger
	mu    sync.Mutex
	token string
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithCipher seals the token at rest with aead.
func WithCipher(aead cipher.AEAD) FileOption {
	return func(s *FileStore) {
		s.aead = aead
	}
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) FileOption {
	return func(s *FileStore) {
		s.log = l
	}
}

// NewFileStore returns a store backed by path. Call Load before use.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{path: path, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted token. A missing file means no session. A token
// that cannot be unsealed is discarded and the file removed.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.token = ""
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(data, &payload); err != nil {
		s.log.Warn("discarding unreadable session file", zap.String("path", s.path), zap.Error(err))
		s.token = ""
		return s.removeLocked()
	}

	raw := payload[TokenKey]
	if raw != "" && s.aead != nil {
		plain, err := open(s.aead, raw)
		if err != nil {
			s.log.Warn("discarding sealed token that cannot be opened", zap.String("path", s.path))
			s.token = ""
			return s.removeLocked()
		}
		raw = plain
	}
	s.token = raw
	return nil
}

// Set replaces the resident token and persists it.
func (s *FileStore) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	value := token
	if s.aead != nil {
		sealed, err := seal(s.aead, token)
		if err != nil {
			return err
		}
		value = sealed
	}
	if err := s.writeLocked(map[string]string{TokenKey: value}); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Get returns the resident token.
func (s *FileStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Clear drops the token from memory first, then from disk.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.removeLocked()
}

func (s *FileStore) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// writeLocked replaces the file atomically via a temp file and rename.
func (s *FileStore) writeLocked(payload map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store for ephemeral sessions.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Set replaces the resident token.
func (m *MemoryStore) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Get returns the resident token.
func (m *MemoryStore) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// Clear drops the token.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
