// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package testutil holds the helpers shared by the package tests; it wraps
// go-cmp so tests need not import it directly.
package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func Diff(a, b interface{}, opts ...cmp.Option) string {
	return cmp.Diff(a, b, opts...)
}

// ExpectNoDiff reports a test error, with a readable diff, when want and got differ.
func ExpectNoDiff(tb testing.TB, want, got interface{}, opts ...cmp.Option) bool {
	tb.Helper()
	if diff := Diff(want, got, opts...); diff != "" {
		tb.Errorf("unexpected diff, -want +got:\n%s", diff)
		return false
	}
	return true
}

// EquateEmpty treats nil and empty slices and maps as equal.
func EquateEmpty() cmp.Option {
	return cmpopts.EquateEmpty()
}

// IgnoreTypes ignores all values of the given types, such as source positions.
func IgnoreTypes(types ...interface{}) cmp.Option {
	return cmpopts.IgnoreTypes(types...)
}
