package archive

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/errors"
	"github.com/sorahel/streamlog/internal/model"
)

const (
	countUserMessages = `SELECT COUNT(*) FROM messages
		WHERE LOWER(username) = ? AND is_system_message = 0`

	lastUserMessageTime = `SELECT timestamp FROM messages
		WHERE LOWER(username) = ? AND is_system_message = 0
		ORDER BY timestamp DESC LIMIT 1`

	selectUserMessagesDesc = `SELECT username, message, timestamp, is_system_message FROM messages
		WHERE LOWER(username) = ? AND is_system_message = 0
		ORDER BY timestamp DESC`

	searchUserMessagesAsc = `SELECT username, message, timestamp, is_system_message FROM messages
		WHERE LOWER(username) = ? AND is_system_message = 0 AND LOWER(message) LIKE ?
		ORDER BY timestamp ASC`
)

// shardInfo describes one shard file with its derived identity.
type shardInfo struct {
	Path     string
	Channel  string
	Platform model.Platform
	Legacy   bool
}

// MessageShardIndex answers cross-shard lookups over the archive directory.
// Every shard is opened read-only; the ingestion pipeline owns the files.
type MessageShardIndex struct {
	dir      string
	resolver *ShardResolver
	parser   model.MessageParser
	emotes   model.EmoteLookup

	cache shardCache
	watch *fsnotify.Watcher
}

// NewMessageShardIndex builds an index over dir. parser may be nil, in
// which case messages carry a single plain-text segment.
func NewMessageShardIndex(dir string, parser model.MessageParser, emotes model.EmoteLookup) *MessageShardIndex {
	return &MessageShardIndex{
		dir:      dir,
		resolver: NewShardResolver(dir),
		parser:   parser,
		emotes:   emotes,
	}
}

// Resolver exposes the index's shard resolver.
func (idx *MessageShardIndex) Resolver() *ShardResolver { return idx.resolver }

func (idx *MessageShardIndex) parse(raw string) []model.MessageSegment {
	if idx.parser == nil {
		return []model.MessageSegment{{Text: raw}}
	}
	return idx.parser.ParseMessage(raw, idx.emotes)
}

// shards returns the current shard listing, served from the cache when the
// archive fingerprint is unchanged.
func (idx *MessageShardIndex) shards() []shardInfo {
	fp := archiveFingerprint(idx.dir)
	if infos, ok := idx.cache.get(fp); ok {
		return infos
	}
	infos := scanShards(idx.dir)
	idx.cache.put(infos, fp)
	return infos
}

// scanShards enumerates every shard file present, not just known channels.
func scanShards(dir string) []shardInfo {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ShardExt))
	if err != nil {
		log.Err(err).Str("dir", dir).Msg("archive scan failed")
		return nil
	}
	sort.Strings(matches)

	infos := make([]shardInfo, 0, len(matches))
	for _, path := range matches {
		base := strings.TrimSuffix(filepath.Base(path), ShardExt)
		if ch, p, ok := splitShardName(base); ok {
			infos = append(infos, shardInfo{Path: path, Channel: ch, Platform: p})
			continue
		}
		infos = append(infos, shardInfo{
			Path:     path,
			Channel:  base,
			Platform: metadataPlatform(path),
			Legacy:   true,
		})
	}
	return infos
}

// GetChannelsForUser reports every channel the user has posted in, with
// message count and most recent timestamp per channel. Results are
// unordered; callers sort if they need an order. One unreadable shard is
// logged and skipped, never failing the whole scan.
func (idx *MessageShardIndex) GetChannelsForUser(username string) ([]model.UserChannelInfo, error) {
	key := model.NormalizeUsername(username)
	if key == "" {
		return nil, errors.InvalidArg("username")
	}

	out := make([]model.UserChannelInfo, 0)
	for _, shard := range idx.shards() {
		info, err := channelInfoForUser(shard, key)
		if err != nil {
			log.Err(err).Str("shard", shard.Path).Msg("skipping unreadable shard")
			continue
		}
		if info == nil {
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

func channelInfoForUser(shard shardInfo, key string) (*model.UserChannelInfo, error) {
	db, err := openShard(shard.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(countUserMessages, key).Scan(&count); err != nil {
		return nil, errors.QueryFailed(err)
	}
	if count == 0 {
		return nil, nil
	}

	var last time.Time
	if err := db.QueryRow(lastUserMessageTime, key).Scan(&last); err != nil {
		return nil, errors.QueryFailed(err)
	}

	return &model.UserChannelInfo{
		ChannelName:     shard.Channel,
		Platform:        shard.Platform,
		MessageCount:    count,
		LastMessageTime: last,
	}, nil
}

// GetUserMessagesFromChannel returns all of a user's messages in one
// channel, newest first. A channel with no shard yields an empty result,
// not an error.
func (idx *MessageShardIndex) GetUserMessagesFromChannel(username, channel string) ([]model.ChatMessage, error) {
	key := model.NormalizeUsername(username)
	if key == "" {
		return nil, errors.InvalidArg("username")
	}
	ch := model.NormalizeChannel(channel)
	if ch == "" {
		return nil, errors.InvalidArg("channel")
	}

	path, platform, err := idx.resolver.Resolve(ch)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return []model.ChatMessage{}, nil
		}
		return nil, err
	}

	return idx.queryMessages(path, ch, platform, selectUserMessagesDesc, key)
}

// SearchUserMessages runs a case-insensitive substring search over all of a
// user's messages across every channel they have posted in. The merged
// result is sorted by timestamp ascending, the opposite of the
// single-channel fetch. Both orders are part of the existing contract.
func (idx *MessageShardIndex) SearchUserMessages(username, text string) ([]model.ChatMessage, error) {
	key := model.NormalizeUsername(username)
	if key == "" {
		return nil, errors.InvalidArg("username")
	}

	channels, err := idx.GetChannelsForUser(key)
	if err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(text) + "%"
	merged := make([]model.ChatMessage, 0)
	for _, ci := range channels {
		path, platform, err := idx.resolver.Resolve(ci.ChannelName)
		if err != nil {
			log.Err(err).Str("channel", ci.ChannelName).Msg("skipping unresolvable channel")
			continue
		}
		msgs, err := idx.queryMessages(path, ci.ChannelName, platform, searchUserMessagesAsc, key, pattern)
		if err != nil {
			log.Err(err).Str("channel", ci.ChannelName).Msg("skipping unreadable channel")
			continue
		}
		merged = append(merged, msgs...)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged, nil
}

func (idx *MessageShardIndex) queryMessages(path, channel string, platform model.Platform, query string, args ...any) ([]model.ChatMessage, error) {
	db, err := openShard(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.QueryFailed(err)
	}
	defer rows.Close()

	out := make([]model.ChatMessage, 0)
	for rows.Next() {
		var (
			username string
			text     string
			ts       time.Time
			system   bool
		)
		if err := rows.Scan(&username, &text, &ts, &system); err != nil {
			return nil, errors.ScanRowFailed(err)
		}
		out = append(out, model.ChatMessage{
			Channel:         channel,
			Platform:        platform,
			Username:        username,
			Message:         text,
			Timestamp:       ts,
			IsSystemMessage: system,
			Segments:        idx.parse(text),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.QueryFailed(err)
	}
	return out, nil
}
