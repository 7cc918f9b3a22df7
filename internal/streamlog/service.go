package streamlog

import (
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/archive"
	"github.com/sorahel/streamlog/internal/model"
	"github.com/sorahel/streamlog/internal/state"
	"github.com/sorahel/streamlog/pkg/util"
)

const (
	configFileName    = "config.json"
	blacklistFileName = "blacklist.json"
)

// Options wires a Service together.
type Options struct {
	// StateDir holds the durable documents (config, blacklist, legacy
	// migration artifacts).
	StateDir string
	// ArchiveDir holds the per-channel message shards written by the
	// ingestion pipeline.
	ArchiveDir string
	// Parser and Emotes are the external message-parsing collaborators;
	// both may be nil.
	Parser model.MessageParser
	Emotes model.EmoteLookup
}

// Service owns the three state components for one session: the
// configuration store, the blacklist store and the shard index. The stores
// are loaded once here and mutated for the rest of the process lifetime.
type Service struct {
	Config    *state.ConfigStore
	Blacklist *state.BlacklistStore
	Index     *archive.MessageShardIndex
}

// New loads both documents (running migration when legacy artifacts are
// found) and builds the shard index with its archive watcher.
func New(opts Options) (*Service, error) {
	if err := util.PrepareDir(opts.StateDir); err != nil {
		return nil, err
	}

	codec := state.NewDocumentCodec()

	cfg := state.NewConfigStore(filepath.Join(opts.StateDir, configFileName), codec)
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	bl := state.NewBlacklistStore(filepath.Join(opts.StateDir, blacklistFileName), codec)
	if err := bl.Load(); err != nil {
		return nil, err
	}

	idx := archive.NewMessageShardIndex(opts.ArchiveDir, opts.Parser, opts.Emotes)
	if err := idx.StartWatcher(); err != nil {
		// Queries still work, they just rescan the directory each time.
		log.Debug().Err(err).Str("dir", opts.ArchiveDir).Msg("archive watcher unavailable")
	}

	bl.Subscribe(func(ev state.BlacklistEvent) {
		log.Debug().Str("op", string(ev.Op)).Str("username", ev.Username).Msg("blacklist changed")
	})

	return &Service{Config: cfg, Blacklist: bl, Index: idx}, nil
}

// Close releases the shard index resources.
func (s *Service) Close() error {
	return s.Index.Close()
}
