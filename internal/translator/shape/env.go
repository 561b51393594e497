// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package shape

import (
	"sort"

	"github.com/golang/glog"
)

// ReturnKey names the shape of the value returned by the function being translated.
const ReturnKey = "_self"

// Env is the shape environment: the mapping from qualified names to shapes
// consulted and extended while a function is translated.  Names are plain
// identifiers, "struct.field" identifiers, or ReturnKey.
type Env struct {
	shapes map[string]Shape
}

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{shapes: make(map[string]Shape)}
}

// Qualify joins a struct prefix and a field name into an environment key.
func Qualify(structName, name string) string {
	if structName == "" {
		return name
	}
	return structName + "." + name
}

// Lookup returns the shape recorded for name.
func (e *Env) Lookup(name string) (Shape, bool) {
	s, ok := e.shapes[name]
	return s, ok
}

// Insert records the shape of name.  A name never changes shape once
// recorded: if name is already present the existing shape is returned
// unchanged with ok false.
func (e *Env) Insert(name string, s Shape) (existing Shape, ok bool) {
	if alt, found := e.shapes[name]; found {
		return alt, false
	}
	glog.V(2).Infof("env: %s is %s", name, s)
	e.shapes[name] = s
	return s, true
}

// Copy returns a shallow copy of the environment.  Shapes inserted into the
// copy are not visible in e.
func (e *Env) Copy() *Env {
	c := &Env{shapes: make(map[string]Shape, len(e.shapes))}
	for k, v := range e.shapes {
		c.shapes[k] = v
	}
	return c
}

// Len returns the number of names with a recorded shape.
func (e *Env) Len() int {
	return len(e.shapes)
}

// Names returns the recorded names in sorted order.
func (e *Env) Names() []string {
	r := make([]string, 0, len(e.shapes))
	for k := range e.shapes {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}
