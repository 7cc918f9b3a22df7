package conf

import (
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/sorahel/streamlog/pkg/config"
)

// SessionConfig remembers one previously used archive, so the next start
// can pick up where the last session left off.
type SessionConfig struct {
	ArchiveDir string    `mapstructure:"archive_dir" json:"archive_dir"`
	StateDir   string    `mapstructure:"state_dir" json:"state_dir"`
	HTTPAddr   string    `mapstructure:"http_addr" json:"http_addr"`
	LastUsed   time.Time `mapstructure:"last_used" json:"last_used"`
}

// AppConfig is the process-level configuration kept by pkg/config.
type AppConfig struct {
	LastArchive string
	History     []SessionConfig
}

// Load reads the app configuration through a settings manager rooted at dir.
func Load(dir string) (*AppConfig, *config.Manager, error) {
	cm, err := config.NewManager(dir)
	if err != nil {
		return nil, nil, err
	}

	c := &AppConfig{LastArchive: cm.GetString("last_archive")}
	history, err := ParseHistory(cm.GetConfig("history"))
	if err != nil {
		return nil, nil, err
	}
	c.History = history
	return c, cm, nil
}

// ParseHistory decodes the raw history list (generic maps when read back
// from JSON) into typed session entries.
func ParseHistory(raw any) ([]SessionConfig, error) {
	if raw == nil {
		return nil, nil
	}

	var out []SessionConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return out, nil
}

// FindSession returns the remembered session for an archive dir, if any.
func (c *AppConfig) FindSession(archiveDir string) (SessionConfig, bool) {
	for _, s := range c.History {
		if s.ArchiveDir == archiveDir {
			return s, true
		}
	}
	return SessionConfig{}, false
}

// UpsertSession records or refreshes a session entry.
func (c *AppConfig) UpsertSession(s SessionConfig) {
	s.LastUsed = time.Now()
	for i, v := range c.History {
		if v.ArchiveDir == s.ArchiveDir {
			c.History[i] = s
			c.LastArchive = s.ArchiveDir
			return
		}
	}
	c.History = append(c.History, s)
	c.LastArchive = s.ArchiveDir
}
