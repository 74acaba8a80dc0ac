package particle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// ErrNoStoredToken is returned by token stores that hold nothing yet.
var ErrNoStoredToken = errors.New("particle: no stored token")

// FileTokenStore stores access tokens in a JSON file.
type FileTokenStore struct {
	fs       afero.Fs
	filepath string
	mu       sync.RWMutex
}

// NewFileTokenStore creates a FileTokenStore on the OS filesystem.
func NewFileTokenStore(path string) *FileTokenStore {
	return NewFileTokenStoreFs(afero.NewOsFs(), path)
}

// NewFileTokenStoreFs creates a FileTokenStore on fs.
func NewFileTokenStoreFs(fs afero.Fs, path string) *FileTokenStore {
	return &FileTokenStore{fs: fs, filepath: path}
}

// Path returns the token file location.
func (f *FileTokenStore) Path() string {
	return f.filepath
}

// SaveTokens writes tokens to the file, replacing it atomically.
func (f *FileTokenStore) SaveTokens(ctx context.Context, tokens *TokenResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tokens == nil {
		return fmt.Errorf("tokens cannot be nil")
	}

	if dir := filepath.Dir(f.filepath); dir != "" && dir != "." {
		if err := f.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	tmpFile := f.filepath + ".tmp"
	if err := afero.WriteFile(f.fs, tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := f.fs.Rename(tmpFile, f.filepath); err != nil {
		_ = f.fs.Remove(tmpFile)
		return fmt.Errorf("failed to save token file: %w", err)
	}

	return nil
}

// LoadTokens reads tokens from the file. A missing file yields ErrNoStoredToken.
func (f *FileTokenStore) LoadTokens(ctx context.Context) (*TokenResponse, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := afero.ReadFile(f.fs, f.filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoStoredToken, f.filepath)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tokens TokenResponse
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &tokens, nil
}

// Delete removes the token file.
func (f *FileTokenStore) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fs.Remove(f.filepath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Exists checks if the token file exists.
func (f *FileTokenStore) Exists() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ok, err := afero.Exists(f.fs, f.filepath)
	return err == nil && ok
}

// MemoryTokenStore stores tokens in memory (useful for testing).
type MemoryTokenStore struct {
	tokens *TokenResponse
	mu     sync.RWMutex
}

// NewMemoryTokenStore creates a new in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// SaveTokens keeps a copy of tokens.
func (m *MemoryTokenStore) SaveTokens(ctx context.Context, tokens *TokenResponse) error {
	if tokens == nil {
		return fmt.Errorf("tokens cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *tokens
	m.tokens = &t
	return nil
}

// LoadTokens returns a copy of the stored tokens.
func (m *MemoryTokenStore) LoadTokens(ctx context.Context) (*TokenResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.tokens == nil {
		return nil, ErrNoStoredToken
	}
	t := *m.tokens
	return &t, nil
}

// Clear removes stored tokens.
func (m *MemoryTokenStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = nil
}
