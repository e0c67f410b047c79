package client

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// TokenStore persists the token pair across process restarts, the way the
// browser frontend kept it in localStorage.
type TokenStore interface {
	Save(accessToken, refreshToken string) error
	Load() (accessToken, refreshToken string, err error)
	Clear() error
}

// MemoryStore keeps tokens for the lifetime of the process. Useful for tests
// and for callers that do not want anything on disk.
type MemoryStore struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	return nil
}

func (s *MemoryStore) Load() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken, nil
}

func (s *MemoryStore) Clear() error {
	return s.Save("", "")
}

type storedTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// FileStore persists tokens as a JSON file readable only by the owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accessToken == "" && refreshToken == "" {
		return s.remove()
	}

	data, err := json.Marshal(storedTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Load() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", nil
		}
		return "", "", err
	}

	var tokens storedTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return "", "", err
	}

	return tokens.AccessToken, tokens.RefreshToken, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove()
}

func (s *FileStore) remove() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
