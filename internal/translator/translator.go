// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package translator drives the translation of a function written in the
// matrix dialect into Eigen C++: parse, canonicalize, infer shapes, then
// generate code.
package translator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"expvar"
	"io"
	"io/ioutil"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/golang/groupcache/lru"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/canon"
	"github.com/ml2eigen/ml2eigen/internal/translator/checker"
	"github.com/ml2eigen/ml2eigen/internal/translator/codegen"
	"github.com/ml2eigen/ml2eigen/internal/translator/errors"
	"github.com/ml2eigen/ml2eigen/internal/translator/parser"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/trace"
)

var (
	// Translations counts the number of successful translations by source name.
	Translations = expvar.NewMap("translations_total")
	// TranslationErrors counts the number of failed translations by source name.
	TranslationErrors = expvar.NewMap("translation_errors_total")
	// CacheHits counts the number of translations answered from the cache.
	CacheHits = expvar.NewInt("translation_cache_hits_total")

	phaseDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ml2eigen",
		Subsystem: "translator",
		Name:      "phase_duration_seconds",
		Help:      "Translation phase time distribution in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2.0, 12),
	}, []string{"phase"})

	warningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ml2eigen",
		Subsystem: "translator",
		Name:      "warnings_total",
		Help:      "Number of shape warnings emitted by source name.",
	}, []string{"source"})
)

// Result is the outcome of a successful translation.
type Result struct {
	Function string             // name of the translated function
	Output   string             // the generated C++
	Warnings errors.WarningList // shape warnings; the output is still usable
}

// Translator translates source text with a fixed seed table.  It is safe for
// concurrent use.
type Translator struct {
	seed *shape.Seed
	reg  prometheus.Registerer

	emitAst       bool // Log the AST after parsing.
	emitAstShapes bool // Log the AST after shape inference.

	cacheMu sync.Mutex // guards cache
	cache   *lru.Cache // results by content hash; nil if disabled
}

// New creates a Translator configured by options.
func New(options ...Option) (*Translator, error) {
	t := &Translator{seed: &shape.Seed{}}
	if err := t.SetOption(options...); err != nil {
		return nil, err
	}
	return t, nil
}

// SetOption takes one or more option functions and applies them in order to the Translator.
func (t *Translator) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option(t); err != nil {
			return err
		}
	}
	return nil
}

// key returns the cache key of a translation of src from the file name.
// Warnings carry the file name, so it is part of the key.
func (t *Translator) key(name string, src []byte) string {
	h := sha256.New()
	_, _ = h.Write(t.seed.Hash())
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(src)
	return string(h.Sum(nil))
}

func (t *Translator) lookup(key string) (*Result, bool) {
	if t.cache == nil {
		return nil, false
	}
	t.cacheMu.Lock()
	defer t.cacheMu.Unlock()
	v, ok := t.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}

func (t *Translator) store(key string, r *Result) {
	if t.cache == nil {
		return
	}
	t.cacheMu.Lock()
	defer t.cacheMu.Unlock()
	t.cache.Add(key, r)
}

// phase runs one step of the translation inside a trace span, and records its duration.
func phase(ctx context.Context, name string, f func() error) error {
	_, span := trace.StartSpan(ctx, "translator."+name)
	defer span.End()
	start := time.Now()
	err := f()
	phaseDurations.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeInvalidArgument, Message: err.Error()})
	}
	return err
}

// Translate reads a single function from input and returns its C++
// translation.  Shape warnings do not fail the translation; they are
// returned in the Result.
func (t *Translator) Translate(ctx context.Context, name string, input io.Reader) (*Result, error) {
	name = filepath.Base(name)
	ctx, span := trace.StartSpan(ctx, "Translator.Translate")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("source", name))

	src, err := ioutil.ReadAll(input)
	if err != nil {
		TranslationErrors.Add(name, 1)
		return nil, pkgerrors.Wrapf(err, "failed to read %q", name)
	}
	key := t.key(name, src)
	if r, ok := t.lookup(key); ok {
		glog.V(1).Infof("contents match, not translating %q again", name)
		CacheHits.Add(1)
		return r, nil
	}

	r, err := t.translate(ctx, name, src)
	if err != nil {
		TranslationErrors.Add(name, 1)
		return nil, pkgerrors.Errorf("translation failed for %s:\n%s", name, err)
	}
	Translations.Add(name, 1)
	warningsTotal.WithLabelValues(name).Add(float64(len(r.Warnings)))
	t.store(key, r)
	return r, nil
}

func (t *Translator) translate(ctx context.Context, name string, src []byte) (*Result, error) {
	var fn *ast.Function
	err := phase(ctx, "parse", func() (err error) {
		fn, err = parser.Parse(name, bytes.NewReader(src))
		return
	})
	if err != nil {
		return nil, err
	}
	if t.emitAst {
		s := parser.Sexp{}
		glog.Infof("%s AST:\n%s", name, s.Dump(fn))
	}

	err = phase(ctx, "canonicalize", func() (err error) {
		fn, err = canon.Canonicalize(fn)
		return
	})
	if err != nil {
		return nil, err
	}

	var warnings errors.WarningList
	err = phase(ctx, "check", func() (err error) {
		fn, warnings, err = checker.Check(name, fn, t.seed.Env(fn.Name))
		return
	})
	if err != nil {
		return nil, err
	}
	if t.emitAstShapes {
		s := parser.Sexp{EmitShapes: true}
		glog.Infof("%s AST with shape annotation:\n%s", name, s.Dump(fn))
	}
	for _, w := range warnings.Strings() {
		glog.Warning(w)
	}

	var out string
	err = phase(ctx, "codegen", func() (err error) {
		out, err = codegen.CodeGen(fn)
		return
	})
	if err != nil {
		return nil, err
	}
	return &Result{Function: fn.Name, Output: out, Warnings: warnings}, nil
}
