package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/you/storefront/domain"
)

const (
	keySize   = 32
	nonceSize = 24
)

// FileStore persists credentials as a secretbox-encrypted JSON blob on
// disk. It is the desktop/dev stand-in for the mobile keychain: the file
// is useless without the configured secret, and a concurrent writer wins
// by last-write, matching the store's documented (lack of) transactional
// guarantee.
type FileStore struct {
	path string
	key  [keySize]byte

	mu sync.Mutex
}

// NewFileStore derives the encryption key from secret via HKDF-SHA256 and
// stores the credential blob at path.
func NewFileStore(path, secret string) (*FileStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("token store secret must not be empty")
	}
	s := &FileStore{path: path}

	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("storefront-token-store"))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive token store key: %w", err)
	}
	return s, nil
}

// Load implements domain.TokenStore
func (s *FileStore) Load(ctx context.Context) (*domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("token store file is truncated")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("failed to decrypt token store")
	}

	var creds domain.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// Save implements domain.TokenStore
func (s *FileStore) Save(ctx context.Context, creds *domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plain, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token store directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write token store: %w", err)
	}
	return nil
}

// Clear implements domain.TokenStore
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token store: %w", err)
	}
	return nil
}
