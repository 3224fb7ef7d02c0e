// Package pref persists the chat mute preference.
package pref

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	// CookieName is the cookie carrying the preference over HTTP.
	CookieName = "chat-muted"
	// TTL is how long a saved preference is honoured.
	TTL = 30 * 24 * time.Hour
)

// Store loads and saves the mute flag. Load reports false when nothing valid
// is stored.
type Store interface {
	Load() (bool, error)
	Save(muted bool) error
}

type fileRecord struct {
	Muted     bool      `yaml:"muted"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// FileStore keeps the preference in a small YAML file.
type FileStore struct {
	path  string
	clock clockwork.Clock
}

// NewFileStore creates a store at path. A nil clock uses the real clock.
func NewFileStore(path string, clock clockwork.Clock) *FileStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FileStore{path: path, clock: clock}
}

// Load returns the saved flag. Missing, expired, or unreadable files count as
// not muted; only unreadable ones return an error.
func (s *FileStore) Load() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read mute preference: %w", err)
	}

	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return false, fmt.Errorf("parse mute preference: %w", err)
	}
	if !rec.ExpiresAt.After(s.clock.Now()) {
		log.Debug().Time("expired_at", rec.ExpiresAt).Msg("mute preference expired")
		return false, nil
	}
	return rec.Muted, nil
}

// Save writes the flag with a fresh expiry.
func (s *FileStore) Save(muted bool) error {
	data, err := yaml.Marshal(fileRecord{Muted: muted, ExpiresAt: s.clock.Now().Add(TTL).UTC()})
	if err != nil {
		return fmt.Errorf("marshal mute preference: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preference dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write mute preference: %w", err)
	}
	return nil
}

// MemoryStore keeps the preference for the life of the process.
type MemoryStore struct {
	Muted bool
}

func (m *MemoryStore) Load() (bool, error) { return m.Muted, nil }

func (m *MemoryStore) Save(muted bool) error {
	m.Muted = muted
	return nil
}

// ReadCookie returns the flag carried by r, false when absent or malformed.
func ReadCookie(r *http.Request) (muted bool, ok bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false, false
	}
	v, err := strconv.ParseBool(c.Value)
	if err != nil {
		return false, false
	}
	return v, true
}

// WriteCookie sets the preference cookie on w.
func WriteCookie(w http.ResponseWriter, muted bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    strconv.FormatBool(muted),
		Path:     "/",
		MaxAge:   int(TTL / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
}
