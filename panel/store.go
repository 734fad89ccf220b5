package panel

import (
	"os"
	"path/filepath"
	"strings"
)

// CredentialStore is the persistence port for the chat API credential.
// Load runs once at machine construction; Save runs on every non-empty
// credential change. Implementations never see an empty Save: blanking
// the field leaves the stored value untouched.
type CredentialStore interface {
	Load() (string, error)
	Save(value string) error
}

// FileStore keeps the credential in a single file, created 0600.
type FileStore struct {
	Path string
}

// NewFileStore creates a file-backed credential store.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the stored credential. A missing file is not an error.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the credential, creating parent directories as needed.
func (s *FileStore) Save(value string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(value+"\n"), 0o600)
}

// MemoryStore is an in-memory CredentialStore for tests.
type MemoryStore struct {
	Value string
	Saves int
}

// Load returns the held value.
func (s *MemoryStore) Load() (string, error) { return s.Value, nil }

// Save records the value and counts the write.
func (s *MemoryStore) Save(value string) error {
	s.Value = value
	s.Saves++
	return nil
}
