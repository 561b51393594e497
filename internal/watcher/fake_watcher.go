// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/golang/glog"
)

// FakeWatcher implements an in-memory Watcher, for tests that inject events
// by hand instead of touching the filesystem.
type FakeWatcher struct {
	watchesMu sync.RWMutex
	watches   map[string]map[Processor]struct{}
	isClosed  bool
}

// NewFakeWatcher returns a fake Watcher for use in tests.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{
		watches: make(map[string]map[Processor]struct{})}
}

// Observe registers p for events on name.
func (w *FakeWatcher) Observe(name string, p Processor) error {
	w.watchesMu.Lock()
	defer w.watchesMu.Unlock()
	if _, ok := w.watches[name]; !ok {
		w.watches[name] = make(map[Processor]struct{})
	}
	w.watches[name][p] = struct{}{}
	return nil
}

// Unobserve removes an observer from the FakeWatcher.  If it's the last
// observer for a name, the name is no longer watched.
func (w *FakeWatcher) Unobserve(name string, p Processor) error {
	w.watchesMu.Lock()
	defer w.watchesMu.Unlock()
	if _, ok := w.watches[name]; !ok {
		return nil
	}
	delete(w.watches[name], p)
	if len(w.watches[name]) == 0 {
		delete(w.watches, name)
	}
	return nil
}

// IsWatching reports whether any processor observes name.
func (w *FakeWatcher) IsWatching(name string) bool {
	w.watchesMu.RLock()
	defer w.watchesMu.RUnlock()
	_, ok := w.watches[name]
	return ok
}

// Close closes down the FakeWatcher; later injections are dropped.
func (w *FakeWatcher) Close() error {
	w.watchesMu.Lock()
	w.isClosed = true
	w.watchesMu.Unlock()
	return nil
}

// inject delivers an event on name to the processors observing name, or
// its directory.
func (w *FakeWatcher) inject(op OpType, name string) {
	w.watchesMu.RLock()
	if w.isClosed {
		w.watchesMu.RUnlock()
		return
	}
	watches, ok := w.watches[name]
	if !ok {
		watches, ok = w.watches[filepath.Dir(name)]
	}
	ps := make([]Processor, 0, len(watches))
	for p := range watches {
		ps = append(ps, p)
	}
	w.watchesMu.RUnlock()
	if !ok {
		glog.Warningf("can't send %s: not watching %s", op, name)
		return
	}
	for _, p := range ps {
		p.ProcessFileEvent(context.Background(), Event{op, name})
	}
}

// InjectCreate lets a test inject a fake creation event.
func (w *FakeWatcher) InjectCreate(name string) {
	w.inject(Create, name)
}

// InjectUpdate lets a test inject a fake update event.
func (w *FakeWatcher) InjectUpdate(name string) {
	w.inject(Update, name)
}

// InjectDelete lets a test inject a fake deletion event.
func (w *FakeWatcher) InjectDelete(name string) {
	w.inject(Delete, name)
}

// Poll does nothing in the fake watcher; events are injected.
func (w *FakeWatcher) Poll() {
}
