package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// BombStore keeps bomb countdowns on this machine in a small JSON file, keyed
// by "bombTime-{userId}-{theme}", so a restarted client resumes the clock.
type BombStore struct {
	mu   sync.Mutex
	path string
}

// NewBombStore returns a store backed by path. The file is created on first Set.
func NewBombStore(path string) *BombStore {
	return &BombStore{path: path}
}

// BombKey names the entry of userID's countdown for theme.
func BombKey(userID, theme string) string {
	return "bombTime-" + userID + "-" + theme
}

// Get returns the stored seconds for key, or nil when there are none.
func (b *BombStore) Get(key string) (*int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load()
	if err != nil {
		return nil, err
	}
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// Set stores seconds for key.
func (b *BombStore) Set(key string, seconds int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load()
	if err != nil {
		return err
	}
	m[key] = seconds
	return b.save(m)
}

// Remove drops key. Removing a missing key is not an error.
func (b *BombStore) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := b.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return b.save(m)
}

func (b *BombStore) load() (map[string]int, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client: read bomb timers: %w", err)
	}
	m := map[string]int{}
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("client: parse %s: %w", b.path, err)
	}
	return m, nil
}

// save writes through a temp file so a crash never leaves half a file.
func (b *BombStore) save(m map[string]int) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("client: create %s: %w", filepath.Dir(b.path), err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("client: write bomb timers: %w", err)
	}
	return os.Rename(tmp, b.path)
}
