package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ErrStateDirRequired is returned when a Manager is built without a state dir.
var ErrStateDirRequired = errors.New("state directory not provided")

const settingsFile = "settings.json"

// Settings are the client preferences persisted across runs. They are
// cosmetic state, never security state: the bearer token lives in the
// token store, not here.
type Settings struct {
	// LastUsername prefills the sign-in form.
	LastUsername string `json:"lastUsername,omitempty"`
	// Units selects metric or imperial display.
	Units string `json:"units,omitempty"`
	// FeedPageSize is the preferred feed page length.
	FeedPageSize int `json:"feedPageSize,omitempty"`
}

// Manager persists client settings as JSON inside the state directory.
type Manager struct {
	mu       sync.RWMutex
	fs       afero.Fs
	path     string
	settings Settings
}

// NewManager creates a settings manager storing data inside stateDir.
// If fs is nil the OS filesystem is used.
func NewManager(fs afero.Fs, stateDir string) (*Manager, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, ErrStateDirRequired
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	m := &Manager{
		fs:   fs,
		path: filepath.Join(stateDir, settingsFile),
	}
	m.load()
	return m, nil
}

// Load returns the current settings.
func (m *Manager) Load() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Update applies fn to the settings and persists the result.
func (m *Manager) Update(fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.settings)
	return m.save()
}

// load reads settings from disk. A missing or corrupt file is treated as
// empty settings rather than an error.
func (m *Manager) load() {
	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return
	}
	m.settings = settings
}

func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := afero.WriteFile(m.fs, m.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
