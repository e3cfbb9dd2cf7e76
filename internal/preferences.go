package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/v2"
)

// preference keys shared with the mobile client
const (
	PlayerTokenKey = "player-token"
	GameTokenKey   = "game-token"
)

var ErrNoPreference = errors.New("no such preference")

// Preferences is a small string key-value store that survives restarts.
type Preferences interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// LocalPreferences keeps preferences in a Pebble database on local disk.
type LocalPreferences struct {
	db *pebble.DB
}

func OpenLocalPreferences(dir string) (*LocalPreferences, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create preferences directory %s: %w", dir, err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("could not open preferences in %s: %w", dir, err)
	}
	return &LocalPreferences{db: db}, nil
}

func (p *LocalPreferences) Get(key string) (string, error) {
	data, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNoPreference
		}
		return "", fmt.Errorf("error getting preference %s: %w", key, err)
	}
	defer closer.Close()
	return string(data), nil
}

func (p *LocalPreferences) Set(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("error setting preference %s: %w", key, err)
	}
	return nil
}

func (p *LocalPreferences) Delete(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("error deleting preference %s: %w", key, err)
	}
	return nil
}

func (p *LocalPreferences) Close() error {
	return p.db.Close()
}
