// Copyright 2015 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package watcher notifies observers when source files are created, changed,
// or removed.
package watcher

import "context"

// OpType is the kind of change an Event reports.
type OpType int

const (
	_ OpType = iota
	Create
	Update
	Delete
)

func (o OpType) String() string {
	switch o {
	case Create:
		return "Create"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	}
	return "Unknown"
}

// Event is a generalisation of events sent from the watcher to its listeners.
type Event struct {
	Op       OpType
	Pathname string
}

// Watcher describes an interface for filesystem watching.
type Watcher interface {
	Observe(name string, processor Processor) error
	Unobserve(name string, processor Processor) error
	Poll()
	Close() error
}

// Processor describes an interface for receiving watcher.Events
type Processor interface {
	ProcessFileEvent(context.Context, Event)
}
