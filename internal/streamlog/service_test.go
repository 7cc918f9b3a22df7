package streamlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorahel/streamlog/internal/state"
)

func TestNewCreatesStateDir(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "nested", "state")
	svc, err := New(Options{StateDir: stateDir, ArchiveDir: t.TempDir()})
	require.NoError(t, err)
	defer svc.Close()

	_, err = os.Stat(stateDir)
	assert.NoError(t, err)
}

func TestNewRunsLegacyMigration(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(stateDir, "followed_channels.json"),
		[]byte(`["#OldChannel"]`), 0o644))

	svc, err := New(Options{StateDir: stateDir, ArchiveDir: t.TempDir()})
	require.NoError(t, err)
	defer svc.Close()

	channels := svc.Config.GetAllChannelSettings()
	require.Contains(t, channels, "oldchannel")
	assert.True(t, channels["oldchannel"].LoggingEnabled)

	// Migration persists the merged document immediately.
	_, err = os.Stat(filepath.Join(stateDir, configFileName))
	assert.NoError(t, err)
}

func TestBlacklistChangesPersistAcrossServices(t *testing.T) {
	stateDir := t.TempDir()
	archiveDir := t.TempDir()

	svc, err := New(Options{StateDir: stateDir, ArchiveDir: archiveDir})
	require.NoError(t, err)

	var events []state.BlacklistEvent
	svc.Blacklist.Subscribe(func(ev state.BlacklistEvent) {
		events = append(events, ev)
	})

	added, err := svc.Blacklist.Add("Troll99")
	require.NoError(t, err)
	require.True(t, added)
	require.Len(t, events, 1)
	assert.Equal(t, state.BlacklistAdded, events[0].Op)
	require.NoError(t, svc.Close())

	reopened, err := New(Options{StateDir: stateDir, ArchiveDir: archiveDir})
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Blacklist.IsBlacklisted("troll99"))
}
