// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package watcher

import (
	"context"
	"expvar"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

var (
	errorCount = expvar.NewInt("source_watcher_error_count")
)

// watch is the set of processors observing a path, and what was last seen there.
type watch struct {
	ps []Processor
	fi os.FileInfo
	// Entries seen on the last poll, when the path is a directory.
	children map[string]os.FileInfo
}

// SourceWatcher implements a Watcher for source files on a real filesystem.
// Changes are found by fsnotify when available, and by polling modification
// times.  A watched directory reports events for the files directly inside it.
type SourceWatcher struct {
	watcher    *fsnotify.Watcher
	pollTicker *time.Ticker

	watchedMu sync.Mutex // protects `watched'
	watched   map[string]*watch

	stopTicks chan struct{} // Channel to notify ticker to stop.

	ticksDone  chan struct{} // Channel to notify when the ticks handler is done.
	eventsDone chan struct{} // Channel to notify when the events handler is done.

	closeOnce sync.Once
}

// NewSourceWatcher returns a new SourceWatcher.  A zero pollInterval
// disables the poll loop; Poll may still be called directly.
func NewSourceWatcher(pollInterval time.Duration, enableFsnotify bool) (*SourceWatcher, error) {
	var f *fsnotify.Watcher
	if enableFsnotify {
		var err error
		f, err = fsnotify.NewWatcher()
		if err != nil {
			glog.Warning(err)
		}
	}
	w := &SourceWatcher{
		watcher: f,
		watched: make(map[string]*watch),
	}
	if pollInterval > 0 {
		w.pollTicker = time.NewTicker(pollInterval)
		w.stopTicks = make(chan struct{})
		w.ticksDone = make(chan struct{})
		go w.runTicks()
	}
	if f != nil {
		w.eventsDone = make(chan struct{})
		go w.runEvents()
	}
	return w, nil
}

// processors returns the processors interested in pathname: those observing
// it, else those observing its directory.
func (w *SourceWatcher) processors(pathname string) []Processor {
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	if watched, ok := w.watched[pathname]; ok {
		return append([]Processor(nil), watched.ps...)
	}
	if watched, ok := w.watched[filepath.Dir(pathname)]; ok {
		return append([]Processor(nil), watched.ps...)
	}
	glog.V(2).Infof("No watch for path %q", pathname)
	return nil
}

// send delivers e to ps.  Locks must not be held, as processors may call
// back into the watcher.
func send(ps []Processor, e Event) {
	glog.V(2).Infof("sending %s for %s", e.Op, e.Pathname)
	for _, p := range ps {
		p.ProcessFileEvent(context.TODO(), e)
	}
}

func (w *SourceWatcher) runTicks() {
	defer close(w.ticksDone)
	for {
		select {
		case <-w.pollTicker.C:
			w.Poll()
		case <-w.stopTicks:
			w.pollTicker.Stop()
			return
		}
	}
}

type pending struct {
	ps []Processor
	e  Event
}

// Poll checks every watched path for changes since the last poll, and sends
// an event for each change found.
func (w *SourceWatcher) Poll() {
	var events []pending
	w.watchedMu.Lock()
	for n, watched := range w.watched {
		events = append(events, pollWatchedPathLocked(n, watched)...)
	}
	w.watchedMu.Unlock()
	for _, p := range events {
		send(p.ps, p.e)
	}
}

// pollWatchedPathLocked compares a watched path against its last observed
// state.  w.watchedMu must be locked when called.
func pollWatchedPathLocked(pathname string, watched *watch) (events []pending) {
	fi, err := os.Stat(pathname)
	if err != nil {
		if os.IsNotExist(err) && watched.fi != nil && !watched.fi.IsDir() {
			events = append(events, pending{watched.ps, Event{Delete, pathname}})
		}
		glog.V(1).Info(err)
		watched.fi = nil
		return
	}
	if fi.IsDir() {
		events = pollDirectoryLocked(pathname, watched)
	} else if watched.fi != nil && fi.ModTime().After(watched.fi.ModTime()) {
		events = append(events, pending{watched.ps, Event{Update, pathname}})
	}
	watched.fi = fi
	return
}

func pollDirectoryLocked(pathname string, watched *watch) (events []pending) {
	entries, err := os.ReadDir(pathname)
	if err != nil {
		glog.V(1).Info(err)
		return
	}
	seen := make(map[string]os.FileInfo, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			glog.V(1).Info(err)
			continue
		}
		match := filepath.Join(pathname, entry.Name())
		seen[match] = fi
		old, ok := watched.children[match]
		switch {
		case !ok:
			events = append(events, pending{watched.ps, Event{Create, match}})
		case fi.ModTime().After(old.ModTime()):
			events = append(events, pending{watched.ps, Event{Update, match}})
		default:
			glog.V(2).Infof("No modtime change for %s, no send", match)
		}
	}
	for match := range watched.children {
		if _, ok := seen[match]; !ok {
			events = append(events, pending{watched.ps, Event{Delete, match}})
		}
	}
	watched.children = seen
	return
}

// runEvents assumes that w.watcher is not nil
func (w *SourceWatcher) runEvents() {
	defer close(w.eventsDone)

	// Suck out errors and dump them to the error log.
	go func() {
		for err := range w.watcher.Errors {
			errorCount.Add(1)
			glog.Errorf("fsnotify error: %s\n", err)
		}
	}()

	for e := range w.watcher.Events {
		glog.V(2).Infof("watcher event %v", e)
		var op OpType
		switch {
		case e.Op&fsnotify.Create == fsnotify.Create:
			op = Create
		case e.Op&fsnotify.Write == fsnotify.Write:
			op = Update
		case e.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
			// A rename is reported on the old name; the new name receives a Create.
			op = Delete
		default:
			continue
		}
		w.record(e.Name, op)
		send(w.processors(e.Name), Event{op, e.Name})
	}
	glog.Infof("Shutting down source watcher.")
}

// record updates the polled state of pathname so the next Poll does not
// repeat an event already delivered by fsnotify.
func (w *SourceWatcher) record(pathname string, op OpType) {
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	dir, ok := w.watched[filepath.Dir(pathname)]
	if !ok || dir.children == nil {
		return
	}
	if op == Delete {
		delete(dir.children, pathname)
		return
	}
	if fi, err := os.Stat(pathname); err == nil && !fi.IsDir() {
		dir.children[pathname] = fi
	}
}

// Close shuts down the SourceWatcher.  It is safe to call this from multiple clients.
func (w *SourceWatcher) Close() (err error) {
	w.closeOnce.Do(func() {
		if w.watcher != nil {
			err = w.watcher.Close()
			<-w.eventsDone
		}
		if w.pollTicker != nil {
			close(w.stopTicks)
			<-w.ticksDone
		}
	})
	return
}

// Observe adds a path to the list of watched items.  If this path has a new
// event, then the processor being registered will be sent the event.  The
// current contents of a directory are recorded, so only later changes are
// reported.
func (w *SourceWatcher) Observe(path string, processor Processor) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to lookup absolute path of %q", path)
	}
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	watched, ok := w.watched[absPath]
	if ok {
		for _, p := range watched.ps {
			if p == processor {
				return nil
			}
		}
		watched.ps = append(watched.ps, processor)
		return nil
	}
	if w.watcher != nil {
		if err := w.watcher.Add(absPath); err != nil {
			if !os.IsPermission(err) {
				return errors.Wrapf(err, "failed to create a new watch on %q", absPath)
			}
			glog.V(2).Infof("Skipping permission denied error on adding a watch.")
		}
	}
	watched = &watch{ps: []Processor{processor}}
	pollWatchedPathLocked(absPath, watched)
	w.watched[absPath] = watched
	glog.V(1).Infof("Watching %s", absPath)
	return nil
}

// Unobserve removes processor from the observers of path.  When no observers
// remain, the path is no longer watched.
func (w *SourceWatcher) Unobserve(path string, processor Processor) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to lookup absolute path of %q", path)
	}
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	watched, ok := w.watched[absPath]
	if !ok {
		return nil
	}
	for i, p := range watched.ps {
		if p == processor {
			watched.ps = append(watched.ps[:i], watched.ps[i+1:]...)
			break
		}
	}
	if len(watched.ps) > 0 {
		return nil
	}
	delete(w.watched, absPath)
	if w.watcher != nil {
		return w.watcher.Remove(absPath)
	}
	return nil
}

// IsWatching indicates if the path is being watched.
func (w *SourceWatcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		glog.V(2).Infof("Couldn't resolve path %q: %s", path, err)
		return false
	}
	w.watchedMu.Lock()
	_, ok := w.watched[absPath]
	w.watchedMu.Unlock()
	return ok
}
