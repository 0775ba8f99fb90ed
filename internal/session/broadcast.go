package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const logoutMarker = "logout.signal"

// Broadcaster propagates logout between concurrently running processes that
// share a state directory.
//
// The signal is edge-triggered: Broadcast writes a marker file and removes it
// immediately, so only processes watching at that moment observe it. A process
// started later never mistakes a leftover marker for a fresh logout.
type Broadcaster struct {
	dir    string
	logger *log.Logger
}

// NewBroadcaster creates a Broadcaster over the given state directory.
func NewBroadcaster(dir string, logger *log.Logger) *Broadcaster {
	return &Broadcaster{dir: dir, logger: logger}
}

// Broadcast signals logout to every watching process.
func (b *Broadcaster) Broadcast() error {
	path := filepath.Join(b.dir, logoutMarker)

	payload := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if err := os.WriteFile(path, payload, 0600); err != nil {
		return fmt.Errorf("failed to write logout marker: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove logout marker: %w", err)
	}
	return nil
}

// Watch invokes onLogout whenever another process broadcasts a logout. The
// watch runs until ctx is cancelled.
func (b *Broadcaster) Watch(ctx context.Context, onLogout func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(b.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", b.dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != logoutMarker {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				b.logger.Debug("logout signal observed", "path", event.Name)
				onLogout()
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn("logout watcher error", "err", werr)
			}
		}
	}()
	return nil
}
