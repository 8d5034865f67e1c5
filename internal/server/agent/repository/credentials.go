package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LoadCredentials reads credentials saved by a previous run. A missing file
// yields ok=false and no error.
func LoadCredentials(path string) (Credentials, bool, error) {
	if path == "" {
		return Credentials{}, false, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(b, &creds); err != nil {
		return Credentials{}, false, fmt.Errorf("failed to decode credentials file: %w", err)
	}
	if !creds.Valid() {
		return Credentials{}, false, fmt.Errorf("credentials file %s is incomplete", path)
	}
	return creds, true, nil
}

// SaveCredentials writes creds with owner-only permissions, replacing the
// file atomically.
func SaveCredentials(path string, creds Credentials) error {
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
