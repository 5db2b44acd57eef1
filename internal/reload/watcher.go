// Package reload applies configuration changes to a running engine.
// A polling Watcher notices edits to the config file, and an Applier
// folds the freshly loaded settings into the live components where
// that is possible without a restart.
package reload

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the configuration file to watch.
	ConfigPath string

	// PollInterval is how often to stat the file. Defaults to 5 seconds
	// if zero.
	PollInterval time.Duration
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// EventType describes a file change event.
type EventType string

// EventModified indicates the config file changed on disk.
const EventModified EventType = "modified"

// Event is a file change notification.
type Event struct {
	Type       EventType
	ConfigPath string
}

// fileState is the snapshot the watcher compares between polls. Size is
// part of the state so rewrites within the modtime granularity and
// reverts to an older file still register as changes.
type fileState struct {
	modTime time.Time
	size    int64
}

func (s fileState) zero() bool {
	return s.modTime.IsZero()
}

// Watcher polls a configuration file for modifications. Events are
// delivered on a buffered channel; a change that fires while a previous
// event is still unconsumed is dropped, which debounces editor save
// bursts.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a file watcher. Call Start to begin polling.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins polling the config file. Safe to call multiple times;
// only the first call starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.poll(ctx)
	})
}

// Events returns the channel of file change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop halts the watcher and waits for the polling goroutine to exit.
// Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	last := w.stat()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current := w.stat()
			if current.zero() {
				// Missing file, or caught mid-rename during an atomic
				// replace. Keep the last known state and retry.
				continue
			}
			if current == last {
				continue
			}
			last = current
			select {
			case w.events <- Event{Type: EventModified, ConfigPath: w.cfg.ConfigPath}:
			default:
			}
		}
	}
}

func (w *Watcher) stat() fileState {
	info, err := os.Stat(w.cfg.ConfigPath)
	if err != nil {
		return fileState{}
	}
	return fileState{modTime: info.ModTime(), size: info.Size()}
}
