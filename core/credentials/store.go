// Package credentials stores API secrets in an encrypted file keyed to the
// local machine and user, so a copied config directory is useless elsewhere.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Well-known secret names.
const (
	KeySheetsClientID     = "sheets.client_id"
	KeySheetsClientSecret = "sheets.client_secret"
	KeySheetsRefreshToken = "sheets.refresh_token"
	KeyAnthropicAPIKey    = "anthropic.api_key"
)

var ErrNotFound = errors.New("credential not found")

// Store is an AES-GCM encrypted flat key/value file. The encryption key is
// derived from a per-install salt plus machine and user identity.
type Store struct {
	path string
	key  []byte
	mu   sync.RWMutex
}

type storeData struct {
	Secrets map[string]string `json:"secrets"`
}

// NewStore opens (or prepares) the credential file under dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	key, err := deriveEncryptionKey(dir)
	if err != nil {
		return nil, err
	}

	return &Store{
		path: filepath.Join(dir, "credentials.enc"),
		key:  key,
	}, nil
}

// Get returns a stored secret, or ErrNotFound.
func (s *Store) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}

	secret, ok := data.Secrets[name]
	if !ok || secret == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return secret, nil
}

// Set stores a secret, rewriting the encrypted file atomically.
func (s *Store) Set(name, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	data.Secrets[name] = secret
	return s.save(data)
}

// Delete removes a secret. Deleting an absent secret is a no-op.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}

	delete(data.Secrets, name)
	return s.save(data)
}

// List returns the names of all stored secrets, never their values.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(data.Secrets))
	for name := range data.Secrets {
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) load() (*storeData, error) {
	encrypted, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeData{Secrets: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, err
	}

	plaintext, err := s.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	var data storeData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if data.Secrets == nil {
		data.Secrets = make(map[string]string)
	}
	return &data, nil
}

func (s *Store) save(data *storeData) error {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return err
	}

	encrypted, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, encrypted, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

func (s *Store) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func deriveEncryptionKey(dir string) ([]byte, error) {
	salt, err := getOrCreateSalt(filepath.Join(dir, ".salt"))
	if err != nil {
		return nil, err
	}

	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}

	input := getMachineIdentifier() + username
	return argon2.IDKey([]byte(input), salt, 1, 64*1024, 4, 32), nil
}

func getOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil && len(salt) == 32 {
		return salt, nil
	}

	salt = make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, err
	}
	return salt, nil
}

func getMachineIdentifier() string {
	sources := []string{
		"/etc/machine-id",
		"/var/lib/dbus/machine-id",
	}

	for _, path := range sources {
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return string(data)
		}
	}

	hostname, _ := os.Hostname()
	combined := hostname + os.Getenv("HOME") + os.Getenv("USER")
	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])
}
