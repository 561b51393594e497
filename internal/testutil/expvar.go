// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package testutil

import (
	"expvar"
	"testing"
	"time"

	"github.com/golang/glog"
)

const defaultDoOrTimeoutDeadline = 10 * time.Second

// intValue reads an *expvar.Int, or the *expvar.Int under key of an
// *expvar.Map when key is not empty.  A missing map entry reads as zero.
func intValue(tb testing.TB, name, key string) int64 {
	tb.Helper()
	v := expvar.Get(name)
	if v == nil {
		tb.Fatalf("no expvar named %q", name)
	}
	if key != "" {
		v = v.(*expvar.Map).Get(key)
		if v == nil {
			return 0
		}
	}
	n := v.(*expvar.Int).Value()
	glog.V(2).Infof("Var %q[%q] is %d", name, key, n)
	return n
}

func expectDelta(tb testing.TB, name, key string, want int64) func() {
	tb.Helper()
	start := intValue(tb, name, key)
	check := func() (bool, error) {
		return intValue(tb, name, key)-start == want, nil
	}
	return func() {
		tb.Helper()
		ok, err := DoOrTimeout(check, defaultDoOrTimeoutDeadline, 10*time.Millisecond)
		FatalIfErr(tb, err)
		if !ok {
			now := intValue(tb, name, key)
			tb.Errorf("Did not see %s[%q] have delta by deadline: got %v - %v = %d, want %d", name, key, now, start, now-start, want)
		}
	}
}

// ExpectExpvarDeltaWithDeadline returns a deferrable function which tests if
// the expvar Int with name has changed by want within a deadline, once the
// function begins.  The starting value is read before returning.
func ExpectExpvarDeltaWithDeadline(tb testing.TB, name string, want int64) func() {
	tb.Helper()
	return expectDelta(tb, name, "", want)
}

// ExpectMapExpvarDeltaWithDeadline is ExpectExpvarDeltaWithDeadline for the
// entry key of the expvar Map with name.
func ExpectMapExpvarDeltaWithDeadline(tb testing.TB, name, key string, want int64) func() {
	tb.Helper()
	return expectDelta(tb, name, key, want)
}
