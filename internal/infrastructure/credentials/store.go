// Package credentials keeps connection passwords and AI API keys out of the
// local database, in the OS keyring or an encrypted file.
package credentials

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const ServiceName = "pgstudio"

type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// ParseBackend normalizes s; an empty value means auto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendFile, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported keyring backend %q (want auto, file or memory)", s)
	}
}

type Options struct {
	Backend Backend
	// FileDir holds the encrypted files of the file backend.
	FileDir string
	// FilePassword unlocks the file backend. When empty the user is prompted.
	FilePassword string
}

// Store reads and writes secrets under namespaced keys.
type Store struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// Open opens the keyring selected by opts.
func Open(opts Options) (*Store, error) {
	ring, err := openRing(opts)
	if err != nil {
		return nil, err
	}
	return New(ring), nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// NewMemory returns a store that forgets everything when the process exits.
func NewMemory() *Store {
	return New(keyring.NewArrayKeyring(nil))
}

func openRing(opts Options) (keyring.Keyring, error) {
	if opts.Backend == BackendMemory {
		return keyring.NewArrayKeyring(nil), nil
	}

	cfg := keyring.Config{
		ServiceName:              ServiceName,
		KeychainTrustApplication: true,
		KeychainName:             "login",
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		LibSecretCollectionName:  ServiceName,
		FileDir:                  opts.FileDir,
		FilePasswordFunc:         keyring.TerminalPrompt,
	}
	if opts.FilePassword != "" {
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(opts.FilePassword)
	}
	if opts.Backend == BackendFile {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s keyring: %w", opts.Backend, err)
	}
	return ring, nil
}

func connectionKey(id string) string   { return "connection:" + id }
func apiKeyKey(provider string) string { return "ai:" + strings.ToLower(provider) }

// SetPassword stores the password of a connection. An empty password removes it.
func (s *Store) SetPassword(connectionID, password string) error {
	if password == "" {
		return s.DeletePassword(connectionID)
	}
	return s.set(connectionKey(connectionID), password)
}

// Password returns the stored password, or "" when none is stored.
func (s *Store) Password(connectionID string) (string, error) {
	return s.get(connectionKey(connectionID))
}

func (s *Store) DeletePassword(connectionID string) error {
	return s.remove(connectionKey(connectionID))
}

func (s *Store) SetAPIKey(provider, key string) error {
	if key == "" {
		return s.remove(apiKeyKey(provider))
	}
	return s.set(apiKeyKey(provider), key)
}

// APIKey returns the key stored for provider, or "".
func (s *Store) APIKey(provider string) (string, error) {
	return s.get(apiKeyKey(provider))
}

// Secret returns an arbitrary entry by its raw key, for imported password
// references of type keychain.
func (s *Store) Secret(key string) (string, error) {
	return s.get(key)
}

func (s *Store) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ring.Set(keyring.Item{Key: key, Label: ServiceName + " " + key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("failed to store secret %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", key, err)
	}
	return string(item.Data), nil
}

func (s *Store) remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.ring.Remove(key)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return fmt.Errorf("failed to remove secret %s: %w", key, err)
}
