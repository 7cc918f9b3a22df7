package state

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/errors"
	"github.com/sorahel/streamlog/internal/model"
)

// ConfigVersionCurrent is the schema tag written by this generation of the
// code. Migration advances older documents to it.
const ConfigVersionCurrent = "3"

// ConfigDocument is the single durable configuration document. Property
// names are camelCase on disk.
type ConfigDocument struct {
	Channels         map[string]model.ChannelSettings `json:"channels"`
	ConfigVersion    string                           `json:"configVersion"`
	LastSaved        time.Time                        `json:"lastSaved"`
	ShowTimestamps   bool                             `json:"showTimestamps"`
	KickClientID     string                           `json:"kickClientId"`
	KickClientSecret string                           `json:"kickClientSecret"`

	// BlacklistedUsers is retained for migration compatibility only; the
	// live set is owned by BlacklistStore.
	BlacklistedUsers []string `json:"blacklistedUsers,omitempty"`
}

func defaultConfigDocument() ConfigDocument {
	return ConfigDocument{
		Channels:      make(map[string]model.ChannelSettings),
		ConfigVersion: ConfigVersionCurrent,
	}
}

func (d ConfigDocument) clone() ConfigDocument {
	c := d
	c.Channels = make(map[string]model.ChannelSettings, len(d.Channels))
	for k, v := range d.Channels {
		c.Channels[k] = v
	}
	if d.BlacklistedUsers != nil {
		c.BlacklistedUsers = append([]string(nil), d.BlacklistedUsers...)
	}
	return c
}

// configFileShape is the on-disk superset: documents written before the
// channels map carried a flat followedChannels array alongside it.
type configFileShape struct {
	ConfigDocument
	FollowedChannels []string `json:"followedChannels"`
}

// ConfigStore owns the configuration document. One mutex guards the
// in-memory copy; durable writes happen outside the lock (snapshot-then-
// write), so two racing saves are last-writer-wins on disk.
type ConfigStore struct {
	mu    sync.Mutex
	path  string
	codec DocumentCodec
	doc   ConfigDocument

	// lastModified is transient: reset each process start, populated only
	// by in-session mutation or migration, never read back from disk.
	lastModified map[string]time.Time
}

// NewConfigStore prepares a store for the document at path. Call Load
// before anything else.
func NewConfigStore(path string, codec DocumentCodec) *ConfigStore {
	return &ConfigStore{
		path:         path,
		codec:        codec,
		doc:          defaultConfigDocument(),
		lastModified: make(map[string]time.Time),
	}
}

// Load reads the document from disk. A missing file triggers the legacy
// migration path; an unreadable or corrupt file falls back to defaults so
// the application can still start. A present file with the stale
// followedChannels shape is merged and persisted once.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.migrateLegacyArtifacts()
		}
		log.Err(err).Str("path", s.path).Msg("config unreadable, starting with defaults")
		return nil
	}

	var raw configFileShape
	if err := s.codec.Unmarshal(data, &raw); err != nil {
		log.Err(errors.LoadCorrupted(s.path, err)).Msg("config corrupt, starting with defaults")
		return nil
	}
	if raw.Channels == nil {
		raw.Channels = make(map[string]model.ChannelSettings)
	}

	s.mu.Lock()
	s.doc = raw.ConfigDocument
	s.mu.Unlock()

	if raw.FollowedChannels != nil {
		return s.mergeFollowedChannels(raw.FollowedChannels)
	}
	return nil
}

// mergeFollowedChannels runs the one-time merge of the deprecated
// followedChannels array into the channels map, then persists so the stale
// key disappears from disk.
func (s *ConfigStore) mergeFollowedChannels(followed []string) error {
	s.mu.Lock()
	merged := 0
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
		merged++
	}
	s.doc.ConfigVersion = ConfigVersionCurrent
	s.mu.Unlock()

	log.Info().Int("merged", merged).Msg("migrated followedChannels array into channels map")
	return s.Save()
}

// Save stamps lastSaved, snapshots the document under the lock, then
// serializes and writes the snapshot with the lock released. The write is a
// whole-file overwrite with no temp-file-plus-rename step; a crash mid-write
// can leave a torn file, and interleaved saves are last-writer-wins.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	s.doc.LastSaved = time.Now()
	snapshot := s.doc.clone()
	s.mu.Unlock()

	data, err := s.codec.Marshal(snapshot)
	if err != nil {
		return errors.PersistenceFailed("marshal config", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.PersistenceFailed("write config", err)
	}
	return nil
}

// GetLoggingEnabled reports whether logging is on for a channel. Unknown
// channels default to true.
func (s *ConfigStore) GetLoggingEnabled(channel string) bool {
	key := model.NormalizeChannel(channel)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.doc.Channels[key]; ok {
		return cs.LoggingEnabled
	}
	return true
}

// SetLoggingEnabled flips the logging flag and saves. Unlike the blacklist
// store, a failed save does not roll the in-memory flag back; the caller
// sees the error and can retry.
func (s *ConfigStore) SetLoggingEnabled(channel string, enabled bool) error {
	key := model.NormalizeChannel(channel)
	if key == "" {
		return errors.InvalidArg("channel")
	}

	s.mu.Lock()
	cs, ok := s.doc.Channels[key]
	if !ok {
		cs = model.DefaultChannelSettings()
	}
	cs.LoggingEnabled = enabled
	s.doc.Channels[key] = cs
	s.lastModified[key] = time.Now()
	s.mu.Unlock()

	return s.Save()
}

// EnsureChannelExists inserts the channel with defaults if it is missing.
// Idempotent; a present channel is left untouched and nothing is written.
func (s *ConfigStore) EnsureChannelExists(channel string) error {
	key := model.NormalizeChannel(channel)
	if key == "" {
		return errors.InvalidArg("channel")
	}

	s.mu.Lock()
	if _, ok := s.doc.Channels[key]; ok {
		s.mu.Unlock()
		return nil
	}
	s.doc.Channels[key] = model.DefaultChannelSettings()
	s.lastModified[key] = time.Now()
	s.mu.Unlock()

	return s.Save()
}

// AddFollowedChannel follows a channel with default settings. Following an
// already known channel is a logged no-op, not an error.
func (s *ConfigStore) AddFollowedChannel(channel string) error {
	key := model.NormalizeChannel(channel)
	if key == "" {
		return errors.InvalidArg("channel")
	}

	s.mu.Lock()
	if _, ok := s.doc.Channels[key]; ok {
		s.mu.Unlock()
		log.Debug().Str("channel", key).Msg("channel already followed")
		return nil
	}
	s.doc.Channels[key] = model.DefaultChannelSettings()
	s.lastModified[key] = time.Now()
	s.mu.Unlock()

	return s.Save()
}

// RemoveFollowedChannel unfollows a channel and reports whether anything
// was removed.
func (s *ConfigStore) RemoveFollowedChannel(channel string) (bool, error) {
	key := model.NormalizeChannel(channel)
	if key == "" {
		return false, errors.InvalidArg("channel")
	}

	s.mu.Lock()
	_, ok := s.doc.Channels[key]
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.doc.Channels, key)
	delete(s.lastModified, key)
	s.mu.Unlock()

	return true, s.Save()
}

// SetChannelPlatform records which platform a followed channel belongs to,
// inserting the channel with defaults if needed.
func (s *ConfigStore) SetChannelPlatform(channel string, platform model.Platform) error {
	key := model.NormalizeChannel(channel)
	if key == "" {
		return errors.InvalidArg("channel")
	}
	if _, ok := model.ParsePlatform(string(platform)); !ok {
		return errors.PlatformUnsupported(string(platform))
	}

	s.mu.Lock()
	cs, ok := s.doc.Channels[key]
	if !ok {
		cs = model.DefaultChannelSettings()
	}
	cs.Platform = platform
	s.doc.Channels[key] = cs
	s.lastModified[key] = time.Now()
	s.mu.Unlock()

	return s.Save()
}

// ShowTimestamps reports the UI timestamp preference.
func (s *ConfigStore) ShowTimestamps() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ShowTimestamps
}

// SetShowTimestamps updates the UI timestamp preference and saves.
func (s *ConfigStore) SetShowTimestamps(show bool) error {
	s.mu.Lock()
	s.doc.ShowTimestamps = show
	s.mu.Unlock()
	return s.Save()
}

// KickCredentials returns the stored Kick API credentials.
func (s *ConfigStore) KickCredentials() (clientID, clientSecret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.KickClientID, s.doc.KickClientSecret
}

// SetKickCredentials updates the Kick API credentials and saves.
func (s *ConfigStore) SetKickCredentials(clientID, clientSecret string) error {
	s.mu.Lock()
	s.doc.KickClientID = clientID
	s.doc.KickClientSecret = clientSecret
	s.mu.Unlock()
	return s.Save()
}

// GetAllChannelSettings returns a copy of the channel map; callers can
// never mutate the store's internal state through it.
func (s *ConfigStore) GetAllChannelSettings() map[string]model.ChannelSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.ChannelSettings, len(s.doc.Channels))
	for k, v := range s.doc.Channels {
		out[k] = v
	}
	return out
}

// ChannelLastModified returns a copy of the transient per-channel
// modification times for this session.
func (s *ConfigStore) ChannelLastModified() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.lastModified))
	for k, v := range s.lastModified {
		out[k] = v
	}
	return out
}

// ConfigVersion reports the schema tag of the loaded document.
func (s *ConfigStore) ConfigVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ConfigVersion
}

// ValidateConfigFile re-reads the file and compares its blacklist
// compatibility field against memory. A consistency check, not a repair.
func (s *ConfigStore) ValidateConfigFile() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, errors.PersistenceFailed("read config", err)
	}
	var raw ConfigDocument
	if err := s.codec.Unmarshal(data, &raw); err != nil {
		return false, errors.LoadCorrupted(s.path, err)
	}

	s.mu.Lock()
	mem := append([]string(nil), s.doc.BlacklistedUsers...)
	s.mu.Unlock()

	file := append([]string(nil), raw.BlacklistedUsers...)
	sort.Strings(mem)
	sort.Strings(file)
	if len(mem) != len(file) {
		return false, nil
	}
	for i := range mem {
		if mem[i] != file[i] {
			return false, nil
		}
	}
	return true, nil
}

// ForceSaveAndVerify saves, re-reads the file and compares entry counts,
// logging any mismatch instead of raising it.
func (s *ConfigStore) ForceSaveAndVerify() error {
	if err := s.Save(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return errors.PersistenceFailed("read config", err)
	}
	var raw ConfigDocument
	if err := s.codec.Unmarshal(data, &raw); err != nil {
		return errors.LoadCorrupted(s.path, err)
	}

	s.mu.Lock()
	channels := len(s.doc.Channels)
	blacklisted := len(s.doc.BlacklistedUsers)
	s.mu.Unlock()

	if len(raw.Channels) != channels || len(raw.BlacklistedUsers) != blacklisted {
		log.Warn().
			Int("memChannels", channels).Int("fileChannels", len(raw.Channels)).
			Int("memBlacklisted", blacklisted).Int("fileBlacklisted", len(raw.BlacklistedUsers)).
			Msg("config verify found count mismatch")
	}
	return nil
}
