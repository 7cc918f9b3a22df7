package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const settingsFile = "settings.json"

// Manager wraps viper around the process-level settings file (paths, HTTP
// address, session history). The durable domain documents are owned by the
// state stores, not by this manager.
type Manager struct {
	Path string

	mu   sync.Mutex
	v    *viper.Viper
	file string
}

// NewManager opens (or prepares) the settings file under dir. A missing
// file is fine; the first SetConfig creates it.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	file := filepath.Join(dir, settingsFile)
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", file).Msg("settings file unreadable, starting fresh")
		}
	}

	return &Manager{Path: dir, v: v, file: file}, nil
}

// SetConfig updates one key and writes the file.
func (m *Manager) SetConfig(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v.Set(key, value)
	return m.v.WriteConfigAs(m.file)
}

// GetConfig returns the raw value for a key.
func (m *Manager) GetConfig(key string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.Get(key)
}

// GetString returns a string value for a key.
func (m *Manager) GetString(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.GetString(key)
}
