package state

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/errors"
	"github.com/sorahel/streamlog/internal/model"
)

// BlacklistVersionCurrent is the bookkeeping tag written with every save.
const BlacklistVersionCurrent = "1"

// BlacklistDocument is the on-disk shape of the username blacklist.
type BlacklistDocument struct {
	BlacklistedUsers []string  `json:"blacklistedUsers"`
	LastUpdated      time.Time `json:"lastUpdated"`
	Version          string    `json:"version"`
}

// BlacklistStore owns the durable username blacklist. Same snapshot-then-
// write persistence as ConfigStore, but every mutating operation is
// transactional against its own file: a failed save rolls the in-memory
// change back before the error is surfaced.
type BlacklistStore struct {
	mu    sync.Mutex
	path  string
	codec DocumentCodec
	users map[string]struct{}

	events *notifier
}

// NewBlacklistStore prepares a store for the document at path. Call Load
// before anything else.
func NewBlacklistStore(path string, codec DocumentCodec) *BlacklistStore {
	return &BlacklistStore{
		path:   path,
		codec:  codec,
		users:  make(map[string]struct{}),
		events: newNotifier(),
	}
}

// Load reads the blacklist document. Any failure falls back to an empty
// set so the application can still start.
func (s *BlacklistStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Err(err).Str("path", s.path).Msg("blacklist unreadable, starting empty")
		}
		return nil
	}

	var doc BlacklistDocument
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		log.Err(errors.LoadCorrupted(s.path, err)).Msg("blacklist corrupt, starting empty")
		return nil
	}

	s.mu.Lock()
	s.users = make(map[string]struct{}, len(doc.BlacklistedUsers))
	for _, name := range doc.BlacklistedUsers {
		key := model.NormalizeUsername(name)
		if key == "" {
			continue
		}
		s.users[key] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// Save snapshots the set under the lock and writes it with the lock
// released. I/O failures are always surfaced, never swallowed.
func (s *BlacklistStore) Save() error {
	s.mu.Lock()
	doc := BlacklistDocument{
		BlacklistedUsers: s.sortedLocked(),
		LastUpdated:      time.Now(),
		Version:          BlacklistVersionCurrent,
	}
	s.mu.Unlock()

	data, err := s.codec.Marshal(doc)
	if err != nil {
		return errors.PersistenceFailed("marshal blacklist", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.PersistenceFailed("write blacklist", err)
	}
	return nil
}

func (s *BlacklistStore) sortedLocked() []string {
	out := make([]string, 0, len(s.users))
	for name := range s.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsBlacklisted reports membership for a username, case-insensitively.
func (s *BlacklistStore) IsBlacklisted(username string) bool {
	key := model.NormalizeUsername(username)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[key]
	return ok
}

// Add blacklists a username. Returns false without writing when the user is
// already present. A failed save removes the just-inserted entry before the
// error is returned, so the caller's view always matches the file.
func (s *BlacklistStore) Add(username string) (bool, error) {
	key := model.NormalizeUsername(username)
	if key == "" {
		return false, errors.InvalidArg("username")
	}

	s.mu.Lock()
	if _, ok := s.users[key]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.users[key] = struct{}{}
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.mu.Lock()
		delete(s.users, key)
		s.mu.Unlock()
		return false, err
	}

	s.events.notify(BlacklistEvent{Op: BlacklistAdded, Username: key})
	return true, nil
}

// Remove mirrors Add: false when the user was not present, full rollback of
// the removal when the save fails.
func (s *BlacklistStore) Remove(username string) (bool, error) {
	key := model.NormalizeUsername(username)
	if key == "" {
		return false, errors.InvalidArg("username")
	}

	s.mu.Lock()
	if _, ok := s.users[key]; !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.users, key)
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.mu.Lock()
		s.users[key] = struct{}{}
		s.mu.Unlock()
		return false, err
	}

	s.events.notify(BlacklistEvent{Op: BlacklistRemoved, Username: key})
	return true, nil
}

// GetAll returns a sorted copy of the blacklist.
func (s *BlacklistStore) GetAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// ClearAll empties the blacklist, restoring the previous set when the save
// fails.
func (s *BlacklistStore) ClearAll() error {
	s.mu.Lock()
	prior := s.users
	cleared := s.sortedLocked()
	s.users = make(map[string]struct{})
	s.mu.Unlock()

	if err := s.Save(); err != nil {
		s.mu.Lock()
		s.users = prior
		s.mu.Unlock()
		return err
	}

	for _, name := range cleared {
		s.events.notify(BlacklistEvent{Op: BlacklistRemoved, Username: name})
	}
	return nil
}

// Subscribe registers a callback for add/remove notifications and returns a
// token for Unsubscribe.
func (s *BlacklistStore) Subscribe(fn func(BlacklistEvent)) uuid.UUID {
	return s.events.subscribe(fn)
}

// Unsubscribe removes a previously registered callback.
func (s *BlacklistStore) Unsubscribe(id uuid.UUID) {
	s.events.unsubscribe(id)
}
