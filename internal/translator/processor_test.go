// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package translator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ml2eigen/ml2eigen/internal/testutil"
	"github.com/ml2eigen/ml2eigen/internal/translator"
	"github.com/ml2eigen/ml2eigen/internal/watcher"
)

func TestOutputPath(t *testing.T) {
	for _, tc := range []struct {
		src, outDir, want string
	}{
		{"/src/f.m", "", "/src/f.cpp"},
		{"/src/f.m", "/out", "/out/f.cpp"},
		{"rel/estimate.m", "gen", "gen/estimate.cpp"},
	} {
		if got := translator.OutputPath(tc.src, tc.outDir); got != tc.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tc.src, tc.outDir, got, tc.want)
		}
	}
}

func TestSourceProcessor(t *testing.T) {
	srcDir := testutil.TestTempDir(t)
	outDir := testutil.TestTempDir(t)

	tr, err := translator.New(translator.Seed(smallSeed))
	testutil.FatalIfErr(t, err)
	p := translator.NewSourceProcessor(tr, outDir)

	// Present before the watch starts; translated by Watch itself.
	early := filepath.Join(srcDir, "early.m")
	testutil.TestWriteFile(t, early, "function x = f(x)\nend\n")
	testutil.TestWriteFile(t, filepath.Join(srcDir, "notes.txt"), "not a source")

	w := watcher.NewFakeWatcher()
	defer w.Close()
	testutil.FatalIfErr(t, p.Watch(context.Background(), w, srcDir))
	if !w.IsWatching(srcDir) {
		t.Fatalf("not watching %s", srcDir)
	}
	testutil.ExpectNoDiff(t, "Vector3 f(Vector3 x) {\n  return x;\n}\n",
		testutil.TestReadFile(t, filepath.Join(outDir, "early.cpp")))
	if _, err := os.Stat(filepath.Join(outDir, "notes.cpp")); !os.IsNotExist(err) {
		t.Errorf("non-source file was translated: %v", err)
	}

	src := filepath.Join(srcDir, "f.m")
	out := filepath.Join(outDir, "f.cpp")
	testutil.TestWriteFile(t, src, "function x = f(x)\nx = -x;\nend\n")
	func() {
		defer testutil.ExpectExpvarDeltaWithDeadline(t, "outputs_written_total", 1)()
		w.InjectCreate(src)
	}()
	testutil.ExpectNoDiff(t, "Vector3 f(Vector3 x) {\n  x = -x;\n  return x;\n}\n", testutil.TestReadFile(t, out))

	testutil.TestWriteFile(t, src, "function x = f(x)\nx = 2 * x;\nend\n")
	w.InjectUpdate(src)
	testutil.ExpectNoDiff(t, "Vector3 f(Vector3 x) {\n  x = 2 * x;\n  return x;\n}\n", testutil.TestReadFile(t, out))

	// A broken update leaves the last good output in place.
	testutil.TestWriteFile(t, src, "x = 1\n")
	w.InjectUpdate(src)
	testutil.ExpectNoDiff(t, "Vector3 f(Vector3 x) {\n  x = 2 * x;\n  return x;\n}\n", testutil.TestReadFile(t, out))

	func() {
		defer testutil.ExpectExpvarDeltaWithDeadline(t, "outputs_removed_total", 1)()
		testutil.FatalIfErr(t, os.Remove(src))
		w.InjectDelete(src)
	}()
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output %s not removed: %v", out, err)
	}
	// Deleting again is harmless.
	w.InjectDelete(src)
}

func TestTranslateFileMissing(t *testing.T) {
	tr, err := translator.New(translator.Seed(smallSeed))
	testutil.FatalIfErr(t, err)
	if _, err := tr.TranslateFile(context.Background(), "testdata/nonexistent.m", ""); err == nil {
		t.Error("expected error for missing source")
	}
}
