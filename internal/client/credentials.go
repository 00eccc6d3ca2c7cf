package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials is what survives between tracker runs: enough to resume the
// session without asking for the password again.
type Credentials struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

type CredentialStore interface {
	// Load returns nil, nil when nothing is stored.
	Load() (*Credentials, error)
	Save(*Credentials) error
	Clear() error
}

// FileCredentials keeps credentials in a JSON file readable only by the
// owner.
type FileCredentials struct {
	path string
}

func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

func (f *FileCredentials) Path() string {
	return f.path
}

func (f *FileCredentials) Load() (*Credentials, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", f.path, err)
	}
	if creds.RefreshToken == "" {
		return nil, nil
	}
	return &creds, nil
}

func (f *FileCredentials) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileCredentials) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
