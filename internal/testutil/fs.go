// Copyright 2019 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// TestTempDir creates a temporary directory for use during tests, returning the pathname.
func TestTempDir(tb testing.TB) string {
	tb.Helper()
	name, err := ioutil.TempDir("", "ml2eigen-test")
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := os.RemoveAll(name); err != nil {
			tb.Fatalf("os.RemoveAll(%s): %s", name, err)
		}
	})
	return name
}

// TestWriteFile replaces the contents of the file called name, creating it if needed.
func TestWriteFile(tb testing.TB, name, contents string) {
	tb.Helper()
	f, err := os.OpenFile(filepath.Clean(name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		tb.Fatal(err)
	}
	WriteString(tb, f, contents)
	if err := f.Close(); err != nil {
		tb.Fatal(err)
	}
}

// TestReadFile returns the contents of the file called name.
func TestReadFile(tb testing.TB, name string) string {
	tb.Helper()
	b, err := ioutil.ReadFile(filepath.Clean(name))
	if err != nil {
		tb.Fatal(err)
	}
	return string(b)
}
