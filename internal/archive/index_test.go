package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorahel/streamlog/internal/errors"
	"github.com/sorahel/streamlog/internal/model"
)

var (
	t1 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	t3 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

// newTestArchive builds an archive with one suffixed Twitch shard and one
// legacy shard whose metadata reports Kick.
func newTestArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	createShard(t, dir, "foo_Twitch.db", "", []shardRow{
		{username: "Alice", message: "hello world", ts: t1},
		{username: "Alice", message: "nothing here", ts: t2},
		{username: "Alice", message: "HELLO again", ts: t3},
		{username: "Alice", message: "alice joined", ts: t3, system: true},
		{username: "bob", message: "hi", ts: t1},
	})
	createShard(t, dir, "bar.db", "Kick", []shardRow{
		{username: "alice", message: "well hello", ts: t2},
	})
	return dir
}

func TestGetChannelsForUser(t *testing.T) {
	idx := NewMessageShardIndex(newTestArchive(t), nil, nil)

	channels, err := idx.GetChannelsForUser("  @ALICE ")
	require.NoError(t, err)
	require.Len(t, channels, 2)

	byName := make(map[string]model.UserChannelInfo, len(channels))
	for _, ci := range channels {
		byName[ci.ChannelName] = ci
	}

	foo := byName["foo"]
	assert.Equal(t, model.PlatformTwitch, foo.Platform)
	assert.Equal(t, 3, foo.MessageCount, "system messages are excluded")
	assert.True(t, foo.LastMessageTime.Equal(t3))

	bar := byName["bar"]
	assert.Equal(t, model.PlatformKick, bar.Platform)
	assert.Equal(t, 1, bar.MessageCount)
	assert.True(t, bar.LastMessageTime.Equal(t2))
}

func TestGetChannelsForUserSkipsZeroCountShards(t *testing.T) {
	idx := NewMessageShardIndex(newTestArchive(t), nil, nil)

	channels, err := idx.GetChannelsForUser("bob")
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "foo", channels[0].ChannelName)
}

func TestGetChannelsForUserSkipsBrokenShard(t *testing.T) {
	dir := newTestArchive(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.db"), []byte("not a database"), 0o644))

	idx := NewMessageShardIndex(dir, nil, nil)
	channels, err := idx.GetChannelsForUser("alice")
	require.NoError(t, err, "one bad shard must not fail the scan")
	assert.Len(t, channels, 2)
}

func TestGetUserMessagesFromChannelNewestFirst(t *testing.T) {
	idx := NewMessageShardIndex(newTestArchive(t), nil, nil)

	msgs, err := idx.GetUserMessagesFromChannel("ALICE", "#Foo")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.True(t, msgs[0].Timestamp.Equal(t3))
	assert.True(t, msgs[1].Timestamp.Equal(t2))
	assert.True(t, msgs[2].Timestamp.Equal(t1))

	for _, m := range msgs {
		assert.Equal(t, "foo", m.Channel)
		assert.Equal(t, model.PlatformTwitch, m.Platform)
		assert.False(t, m.IsSystemMessage)
	}
}

func TestGetUserMessagesFromUnknownChannelIsEmpty(t *testing.T) {
	idx := NewMessageShardIndex(newTestArchive(t), nil, nil)

	msgs, err := idx.GetUserMessagesFromChannel("alice", "ghost")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSearchUserMessagesAscendingAcrossChannels(t *testing.T) {
	idx := NewMessageShardIndex(newTestArchive(t), nil, nil)

	msgs, err := idx.SearchUserMessages("alice", "HELLO")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	// Oldest first, merged across both shards.
	assert.True(t, msgs[0].Timestamp.Equal(t1))
	assert.Equal(t, "foo", msgs[0].Channel)
	assert.True(t, msgs[1].Timestamp.Equal(t2))
	assert.Equal(t, "bar", msgs[1].Channel)
	assert.Equal(t, model.PlatformKick, msgs[1].Platform)
	assert.True(t, msgs[2].Timestamp.Equal(t3))
	assert.Equal(t, "foo", msgs[2].Channel)
}

func TestEmptyUsernameRejected(t *testing.T) {
	idx := NewMessageShardIndex(newTestArchive(t), nil, nil)

	_, err := idx.GetChannelsForUser(" @ ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = idx.SearchUserMessages("", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

type stubParser struct{}

func (stubParser) ParseMessage(raw string, _ model.EmoteLookup) []model.MessageSegment {
	segs := make([]model.MessageSegment, 0, 2)
	for _, tok := range strings.Fields(raw) {
		seg := model.MessageSegment{Text: tok}
		if strings.HasPrefix(tok, "@") {
			seg.IsMention = true
			seg.MentionedUsername = model.NormalizeUsername(tok)
		}
		segs = append(segs, seg)
	}
	return segs
}

func TestMessagesRunThroughParserCollaborator(t *testing.T) {
	dir := t.TempDir()
	createShard(t, dir, "foo_Twitch.db", "", []shardRow{
		{username: "alice", message: "hi @Bob", ts: t1},
	})

	idx := NewMessageShardIndex(dir, stubParser{}, nil)
	msgs, err := idx.GetUserMessagesFromChannel("alice", "foo")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.Len(t, msgs[0].Segments, 2)
	assert.Equal(t, "hi", msgs[0].Segments[0].Text)
	assert.True(t, msgs[0].Segments[1].IsMention)
	assert.Equal(t, "bob", msgs[0].Segments[1].MentionedUsername)
}

func TestShardListingCacheTracksArchiveChanges(t *testing.T) {
	dir := t.TempDir()
	createShard(t, dir, "foo_Twitch.db", "", []shardRow{
		{username: "alice", message: "one", ts: t1},
	})

	idx := NewMessageShardIndex(dir, nil, nil)
	channels, err := idx.GetChannelsForUser("alice")
	require.NoError(t, err)
	assert.Len(t, channels, 1)

	// A shard appearing later must be picked up without a restart.
	createShard(t, dir, "baz_Kick.db", "", []shardRow{
		{username: "alice", message: "two", ts: t2},
	})

	channels, err = idx.GetChannelsForUser("alice")
	require.NoError(t, err)
	assert.Len(t, channels, 2)
}
