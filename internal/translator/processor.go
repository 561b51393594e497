// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package translator

import (
	"context"
	"expvar"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/watcher"
	"github.com/pkg/errors"
)

// SourceExt is the file extension of translatable sources.
const SourceExt = ".m"

// OutputExt is the file extension of generated code.
const OutputExt = ".cpp"

var (
	// OutputsWritten counts the generated files written by the watch loop.
	OutputsWritten = expvar.NewInt("outputs_written_total")
	// OutputsRemoved counts the generated files removed when their source was deleted.
	OutputsRemoved = expvar.NewInt("outputs_removed_total")
)

// OutputPath returns the path of the generated file for the source at
// pathname, placed in outDir, or beside the source if outDir is empty.
func OutputPath(pathname, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(pathname), SourceExt) + OutputExt
	if outDir == "" {
		return filepath.Join(filepath.Dir(pathname), base)
	}
	return filepath.Join(outDir, base)
}

// TranslateFile translates the source at pathname and writes the result to
// its OutputPath.
func (t *Translator) TranslateFile(ctx context.Context, pathname, outDir string) (*Result, error) {
	f, err := os.Open(filepath.Clean(pathname))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open source %q", pathname)
	}
	defer f.Close()
	r, err := t.Translate(ctx, pathname, f)
	if err != nil {
		return nil, err
	}
	out := OutputPath(pathname, outDir)
	if err := ioutil.WriteFile(out, []byte(r.Output), 0o644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %q", out)
	}
	glog.Infof("Translated %s to %s", pathname, out)
	return r, nil
}

// SourceProcessor keeps generated files in step with their sources as
// watcher events arrive.
type SourceProcessor struct {
	t      *Translator
	outDir string
}

// NewSourceProcessor returns a processor writing translations of t into
// outDir, or beside each source if outDir is empty.
func NewSourceProcessor(t *Translator, outDir string) *SourceProcessor {
	return &SourceProcessor{t: t, outDir: outDir}
}

// ProcessFileEvent implements the watcher.Processor interface.
func (p *SourceProcessor) ProcessFileEvent(ctx context.Context, e watcher.Event) {
	if filepath.Ext(e.Pathname) != SourceExt {
		glog.V(2).Infof("ignoring %s of %s", e.Op, e.Pathname)
		return
	}
	switch e.Op {
	case watcher.Create, watcher.Update:
		if _, err := p.t.TranslateFile(ctx, e.Pathname, p.outDir); err != nil {
			glog.Warning(err)
			return
		}
		OutputsWritten.Add(1)
	case watcher.Delete:
		out := OutputPath(e.Pathname, p.outDir)
		if err := os.Remove(out); err != nil {
			if !os.IsNotExist(err) {
				glog.Warning(err)
			}
			return
		}
		glog.Infof("Removed %s", out)
		OutputsRemoved.Add(1)
	}
}

// Watch translates every source in dir, then observes dir with w so later
// changes are translated as they happen.
func (p *SourceProcessor) Watch(ctx context.Context, w watcher.Watcher, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+SourceExt))
	if err != nil {
		return errors.Wrapf(err, "failed to list %q", dir)
	}
	for _, m := range matches {
		p.ProcessFileEvent(ctx, watcher.Event{Op: watcher.Create, Pathname: m})
	}
	return w.Observe(dir, p)
}
