package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/errors"
	"github.com/sorahel/streamlog/internal/model"
)

// ShardExt is the extension of per-channel message shard files.
const ShardExt = ".db"

// openShard opens a shard read-only with a shared cache and a busy timeout,
// so queries tolerate the ingestion pipeline appending to the same file.
// The index never writes to a shard.
func openShard(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	return sql.Open("sqlite3", dsn)
}

// splitShardName splits a shard base name into channel and platform when it
// follows the {channel}_{platform} convention. Legacy names (no parseable
// platform token after the last underscore) report ok=false.
func splitShardName(base string) (channel string, platform model.Platform, ok bool) {
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return base, "", false
	}
	p, valid := model.ParsePlatform(base[idx+1:])
	if !valid {
		return base, "", false
	}
	return base[:idx], p, true
}

// metadataPlatform reads the optional metadata table of a legacy shard for
// its platform key. Anything missing or unreadable defaults to Twitch,
// which predates the suffixed naming convention.
func metadataPlatform(path string) model.Platform {
	db, err := openShard(path)
	if err != nil {
		log.Debug().Err(err).Str("shard", path).Msg("cannot open shard for metadata")
		return model.PlatformTwitch
	}
	defer db.Close()

	var value string
	if err := db.QueryRow(`SELECT value FROM metadata WHERE key = 'platform'`).Scan(&value); err != nil {
		return model.PlatformTwitch
	}
	if p, ok := model.ParsePlatform(value); ok {
		return p
	}
	return model.PlatformTwitch
}

// ShardResolver locates the on-disk shard for a channel and determines the
// platform it belongs to.
type ShardResolver struct {
	dir string
}

func NewShardResolver(dir string) *ShardResolver {
	return &ShardResolver{dir: dir}
}

// Resolve finds the shard for a channel. The platform-suffixed name is
// preferred; historical shards predate that convention and fall back to the
// bare {channel}.db name, consulting the shard's own metadata table for the
// platform. Neither file existing is a resolution failure.
func (r *ShardResolver) Resolve(channel string) (string, model.Platform, error) {
	ch := model.NormalizeChannel(channel)
	if ch == "" {
		return "", "", errors.InvalidArg("channel")
	}

	matches, err := filepath.Glob(filepath.Join(r.dir, ch+"_*"+ShardExt))
	if err == nil && len(matches) > 0 {
		sort.Strings(matches)
		path := matches[0]
		base := strings.TrimSuffix(filepath.Base(path), ShardExt)
		if _, p, ok := splitShardName(base); ok {
			return path, p, nil
		}
		return path, model.PlatformTwitch, nil
	}

	legacy := filepath.Join(r.dir, ch+ShardExt)
	if _, err := os.Stat(legacy); err == nil {
		return legacy, metadataPlatform(legacy), nil
	}

	return "", "", errors.ShardNotFound(ch)
}
