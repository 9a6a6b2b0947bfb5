// Package watcher polls a directory tree for sim-requests file changes.
package watcher

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simviewer/simviewer/internal/events"
	"github.com/simviewer/simviewer/internal/simfiles"
	"github.com/simviewer/simviewer/pkg/protocol"
)

// DefaultInterval is used when New is given a zero interval.
const DefaultInterval = 2 * time.Second

type fileState struct {
	fullPath string
	mtime    int64
	size     int64
}

// Watcher watches the sim-requests files under one root.
type Watcher struct {
	root     string
	interval time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	state map[string]fileState // relative path -> last seen

	events   *events.Broadcaster
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new watcher for root.
func New(root string, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		root:     root,
		interval: interval,
		logger:   logger,
		state:    make(map[string]fileState),
		events:   events.NewBroadcaster(),
		done:     make(chan struct{}),
	}
}

// Start records the current files and begins polling until ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	state, err := w.snapshot(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()

	go w.watchLoop(ctx)
	return nil
}

// Stop stops polling and closes every subscriber channel. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.events.Close()
	})
}

// Subscribe returns a channel that receives change events.
func (w *Watcher) Subscribe() chan protocol.ChangeEvent {
	return w.events.Subscribe()
}

// Unsubscribe removes a subscriber.
func (w *Watcher) Unsubscribe(ch chan protocol.ChangeEvent) {
	w.events.Unsubscribe(ch)
}

// Files returns how many sim-requests files the last poll saw.
func (w *Watcher) Files() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.state)
}

func (w *Watcher) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer w.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkChanges(ctx)
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) snapshot(ctx context.Context) (map[string]fileState, error) {
	state := make(map[string]fileState)
	err := simfiles.Walk(ctx, w.root, w.logger, func(f simfiles.Found) {
		state[f.RelativePath] = fileState{
			fullPath: f.FullPath,
			mtime:    f.Info.ModTime().UnixNano(),
			size:     f.Info.Size(),
		}
	})
	return state, err
}

func (w *Watcher) checkChanges(ctx context.Context) {
	newState, err := w.snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("watch poll failed", zap.String("root", w.root), zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	oldState := w.state
	w.state = newState
	w.mu.Unlock()

	var changes []protocol.ChangeEvent
	for _, rel := range sortedKeys(newState) {
		cur := newState[rel]
		prev, existed := oldState[rel]
		switch {
		case !existed:
			changes = append(changes, newEvent(protocol.EventCreate, rel, cur))
		case cur.mtime != prev.mtime || cur.size != prev.size:
			changes = append(changes, newEvent(protocol.EventModify, rel, cur))
		}
	}
	for _, rel := range sortedKeys(oldState) {
		if _, exists := newState[rel]; !exists {
			gone := oldState[rel]
			gone.size = 0
			changes = append(changes, newEvent(protocol.EventDelete, rel, gone))
		}
	}

	for _, event := range changes {
		w.logger.Debug("sim-requests file changed",
			zap.String("type", event.Type),
			zap.String("path", event.RelativePath))
		w.events.Publish(event)
	}
}

func newEvent(eventType, rel string, st fileState) protocol.ChangeEvent {
	info := simfiles.Describe(rel)
	return protocol.ChangeEvent{
		Type:         eventType,
		RelativePath: rel,
		FullPath:     st.fullPath,
		DisplayName:  info.DisplayName,
		RunID:        info.RunIDPtr(),
		Instance:     info.Instance,
		Size:         st.size,
		Timestamp:    time.Now().Unix(),
	}
}

func sortedKeys(m map[string]fileState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
