package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// shardCache memoizes the derived shard listing so legacy shards are not
// re-opened for their metadata table on every fan-out query. It only
// affects freshness, never correctness: a miss falls back to a directory
// scan.
type shardCache struct {
	mu          sync.Mutex
	infos       []shardInfo
	fingerprint uint64
	valid       bool
}

func (c *shardCache) get(fingerprint uint64) ([]shardInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.fingerprint != fingerprint {
		return nil, false
	}
	return c.infos, true
}

func (c *shardCache) put(infos []shardInfo, fingerprint uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = infos
	c.fingerprint = fingerprint
	c.valid = true
}

func (c *shardCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}

// archiveFingerprint hashes the names, sizes and modification times of all
// shard files so a changed archive is detected even without the watcher.
func archiveFingerprint(dir string) uint64 {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ShardExt))
	if err != nil {
		return 0
	}
	sort.Strings(matches)

	h := xxhash.New()
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s|%d|%d;", filepath.Base(path), fi.Size(), fi.ModTime().UnixNano())
	}
	return h.Sum64()
}

// StartWatcher begins watching the archive directory and invalidates the
// shard listing when shard files appear, change or disappear. The index
// works without it; queries then rely on the fingerprint check alone.
func (idx *MessageShardIndex) StartWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(idx.dir); err != nil {
		w.Close()
		return err
	}
	idx.watch = w
	go idx.watchLoop()
	return nil
}

func (idx *MessageShardIndex) watchLoop() {
	for {
		select {
		case ev, ok := <-idx.watch.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ShardExt {
				continue
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) ||
				ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove) {
				idx.cache.invalidate()
			}
		case err, ok := <-idx.watch.Errors:
			if !ok {
				return
			}
			log.Debug().Err(err).Msg("archive watcher error")
		}
	}
}

// Close stops the watcher if one is running.
func (idx *MessageShardIndex) Close() error {
	if idx.watch != nil {
		return idx.watch.Close()
	}
	return nil
}
