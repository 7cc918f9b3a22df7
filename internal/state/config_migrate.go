package state

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/model"
)

// Legacy artifacts from earlier schema generations, searched next to the
// current document. Each is optional; absence is not an error.
const (
	legacyChannelSettingsFile  = "channel_settings.json"
	legacyFollowedChannelsFile = "followed_channels.json"
	legacyFilteredUsersFile    = "filtered_users.json"
)

type legacyChannelSetting struct {
	LoggingEnabled bool      `json:"loggingEnabled"`
	LastModified   time.Time `json:"lastModified"`
}

// readLegacy loads one optional legacy artifact. Unreadable artifacts are
// skipped with a log line, never fatal.
func (s *ConfigStore) readLegacy(name string, v any) bool {
	path := filepath.Join(filepath.Dir(s.path), name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", path).Msg("legacy artifact unreadable")
		}
		return false
	}
	if err := s.codec.Unmarshal(data, v); err != nil {
		log.Err(err).Str("path", path).Msg("legacy artifact malformed, skipped")
		return false
	}
	return true
}

// migrateLegacyArtifacts runs at most once per cold start, when the current
// document file is absent. Import order: per-channel settings first, then
// the flat followed-channels list, then the user filter. The merged
// document is written only when at least one channel was imported.
func (s *ConfigStore) migrateLegacyArtifacts() error {
	s.mu.Lock()
	imported := 0

	var settings map[string]legacyChannelSetting
	if s.readLegacy(legacyChannelSettingsFile, &settings) {
		for name, ls := range settings {
			key := model.NormalizeChannel(name)
			if key == "" {
				continue
			}
			cs := model.DefaultChannelSettings()
			cs.LoggingEnabled = ls.LoggingEnabled
			s.doc.Channels[key] = cs
			if !ls.LastModified.IsZero() {
				s.lastModified[key] = ls.LastModified
			} else {
				s.lastModified[key] = time.Now()
			}
			imported++
		}
	}

	var followed []string
	if s.readLegacy(legacyFollowedChannelsFile, &followed) {
		for _, name := range followed {
			key := model.NormalizeChannel(name)
			if key == "" {
				continue
			}
			if _, ok := s.doc.Channels[key]; ok {
				continue
			}
			s.doc.Channels[key] = model.DefaultChannelSettings()
			s.lastModified[key] = time.Now()
			imported++
		}
	}

	var filtered []string
	if s.readLegacy(legacyFilteredUsersFile, &filtered) {
		seen := make(map[string]struct{}, len(filtered))
		users := make([]string, 0, len(filtered))
		for _, name := range filtered {
			key := model.NormalizeUsername(name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			users = append(users, key)
		}
		sort.Strings(users)
		s.doc.BlacklistedUsers = users
	}

	if imported == 0 {
		s.mu.Unlock()
		return nil
	}
	s.doc.ConfigVersion = ConfigVersionCurrent
	s.mu.Unlock()

	log.Info().Int("channels", imported).Msg("imported legacy configuration artifacts")
	return s.Save()
}
