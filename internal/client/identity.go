package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LoadUserID returns the player id stored in path, creating a new random id
// on first use. An unreadable or malformed file is replaced.
func LoadUserID(path string) (string, error) {
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id, perr := uuid.Parse(strings.TrimSpace(string(b))); perr == nil {
			return id.String(), nil
		}
		log.Warn().Str("path", path).Msg("user id file is malformed, issuing a new id")
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("client: read user id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("client: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("client: write user id: %w", err)
	}
	log.Debug().Str("path", path).Msg("new user id issued")
	return id, nil
}
