// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package translator

import (
	"github.com/golang/groupcache/lru"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a new Translator.
type Option func(*Translator) error

// EmitAst instructs the Translator to log the syntax tree after parsing.
func EmitAst() Option {
	return func(t *Translator) error {
		t.emitAst = true
		return nil
	}
}

// EmitAstShapes instructs the Translator to log the syntax tree with shape
// annotations after inference.
func EmitAstShapes() Option {
	return func(t *Translator) error {
		t.emitAstShapes = true
		return nil
	}
}

// Seed sets the table of known shapes that translations start from.
func Seed(s *shape.Seed) Option {
	return func(t *Translator) error {
		if s == nil {
			return errors.New("nil seed table")
		}
		t.seed = s
		return nil
	}
}

// SeedFile loads the table of known shapes from a YAML file.
func SeedFile(path string) Option {
	return func(t *Translator) error {
		s, err := shape.LoadSeed(path)
		if err != nil {
			return err
		}
		t.seed = s
		return nil
	}
}

// CacheSize keeps the results of up to n translations, keyed by source and
// seed content.  Zero disables the cache.
func CacheSize(n int) Option {
	return func(t *Translator) error {
		if n < 0 {
			return errors.Errorf("invalid cache size %d", n)
		}
		if n == 0 {
			t.cache = nil
			return nil
		}
		t.cache = lru.New(n)
		return nil
	}
}

// PrometheusRegisterer passes in a registry for setting up exported metrics.
func PrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(t *Translator) error {
		t.reg = reg
		t.reg.MustRegister(phaseDurations, warningsTotal)
		return nil
	}
}
