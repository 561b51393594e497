// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package shape

import (
	"bytes"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Seed is the externally supplied table of known shapes.  It is loaded once
// and used to build a fresh Env for each function translated.
//
//	shapes:
//	  M_PI: [1, 1]
//	  constantsASTRA.Q: [18, 18]
//	returns:
//	  estimator: [13, 1]
//	  quatRot: [3, 3]
type Seed struct {
	Shapes  map[string]Shape `yaml:"shapes"`
	Returns map[string]Shape `yaml:"returns"`
}

// UnmarshalYAML decodes a shape written as a [rows, cols] sequence.
func (s *Shape) UnmarshalYAML(value *yaml.Node) error {
	var dims []int
	if err := value.Decode(&dims); err != nil {
		return errors.Wrapf(err, "line %d: shape must be a [rows, cols] list", value.Line)
	}
	if len(dims) != 2 {
		return errors.Errorf("line %d: shape must have exactly two dimensions, got %d", value.Line, len(dims))
	}
	if dims[0] < 0 || dims[1] < 0 {
		return errors.Errorf("line %d: negative dimension in %v", value.Line, dims)
	}
	s.Rows, s.Cols = dims[0], dims[1]
	return nil
}

// ParseSeed reads a YAML seed table.
func ParseSeed(r io.Reader) (*Seed, error) {
	s := &Seed{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode seed table")
	}
	return s, nil
}

// LoadSeed reads the YAML seed table at path.
func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open seed table %q", path)
	}
	defer f.Close()
	s, err := ParseSeed(f)
	if err != nil {
		return nil, errors.Wrapf(err, "in %q", path)
	}
	return s, nil
}

// Env builds the environment for translating the function named fn.  Every
// entry of Shapes is copied, every entry of Returns is recorded under its
// function name so calls resolve to it, and ReturnKey is set to Returns[fn]
// when present.
func (s *Seed) Env(fn string) *Env {
	e := NewEnv()
	if s == nil {
		return e
	}
	for k, v := range s.Shapes {
		e.shapes[k] = v
	}
	for k, v := range s.Returns {
		e.shapes[k] = v
	}
	if r, ok := s.Returns[fn]; ok {
		e.shapes[ReturnKey] = r
	}
	return e
}

// Hash returns a digest of the seed contents, stable across map orderings.
func (s *Seed) Hash() []byte {
	h := sha256.New()
	if s == nil {
		return h.Sum(nil)
	}
	var b bytes.Buffer
	for _, m := range []map[string]Shape{s.Shapes, s.Returns} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(k)
			b.WriteString(m[k].String())
			b.WriteByte(0)
		}
		b.WriteByte(1)
	}
	_, _ = h.Write(b.Bytes())
	return h.Sum(nil)
}
