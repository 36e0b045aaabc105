// Package tokenstore persists the bearer token and its refresh-eligibility
// timestamp across client runs. It is the single shared mutable resource of
// the request pipeline: every outgoing request reads it, the refresh path
// writes it, and every invalidation path clears token and timestamp together.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// ErrStateDirRequired is returned when a Store is built without a state dir.
var ErrStateDirRequired = errors.New("state directory not provided")

const stateFile = "session_token.json"

// record is the persisted on-disk shape.
type record struct {
	Token             string `json:"token"`
	RefreshEligibleAt int64  `json:"refreshEligibleAt,omitempty"` // unix seconds
}

// Store holds the token record behind a lock. Presence of a token never
// guarantees server-side validity; only a request confirms it.
type Store struct {
	mu   sync.RWMutex
	fs   afero.Fs
	path string
	rec  record
	now  func() time.Time
}

// NewStore creates a token store persisting inside stateDir. If fs is nil
// the OS filesystem is used. A missing or corrupt state file loads as an
// absent token.
func NewStore(fs afero.Fs, stateDir string) (*Store, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, ErrStateDirRequired
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &Store{
		fs:   fs,
		path: filepath.Join(stateDir, stateFile),
		now:  time.Now,
	}
	s.load()
	return s, nil
}

// Token returns the persisted bearer token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.Token == "" {
		return "", false
	}
	return s.rec.Token, true
}

// Set overwrites the stored token. A zero refreshEligibleAt means no
// proactive refresh will be scheduled for this token.
func (s *Store) Set(token string, refreshEligibleAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = record{Token: token}
	if !refreshEligibleAt.IsZero() {
		s.rec.RefreshEligibleAt = refreshEligibleAt.Unix()
	}
	return s.save()
}

// Clear removes the token and the eligibility timestamp together.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = record{}
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token state: %w", err)
	}
	return nil
}

// IsRefreshDue reports whether a proactive refresh should be attempted
// before the next request. No stored timestamp means no proactive refresh.
func (s *Store) IsRefreshDue() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.Token == "" || s.rec.RefreshEligibleAt == 0 {
		return false
	}
	return !s.now().Before(time.Unix(s.rec.RefreshEligibleAt, 0))
}

// Eligibility derives the next proactive-refresh time from a token lifetime
// reported by the server. A non-positive lifetime yields the zero time,
// disabling proactive refresh for that token.
func Eligibility(now time.Time, expiresIn int64, leeway time.Duration) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	expiry := now.Add(time.Duration(expiresIn) * time.Second)
	due := expiry.Add(-leeway)
	if !due.After(now) {
		// Short-lived token: refresh only once it has actually expired,
		// otherwise every request would trigger a refresh.
		due = expiry
	}
	return due
}

// load reads the state file. Errors leave the store empty.
func (s *Store) load() {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return
	}
	s.rec = rec
}

// save writes the state file. Callers hold the write lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token state: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("write token state: %w", err)
	}
	return nil
}
