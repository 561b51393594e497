// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package main

import (
	"strings"
	"testing"

	"github.com/ml2eigen/ml2eigen/internal/testutil"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

func TestMakeDot(t *testing.T) {
	seed := &shape.Seed{
		Shapes:  map[string]shape.Shape{"x": shape.Vector(3)},
		Returns: map[string]shape.Shape{"f": shape.Vector(3)},
	}
	var b strings.Builder
	err := makeDot("f.m", strings.NewReader("function x = f(x)\nx = -x;\nend\n"), seed, &b)
	testutil.FatalIfErr(t, err)
	out := b.String()
	if !strings.HasPrefix(out, "digraph \"f.m\" {\n") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("not a digraph:\n%s", out)
	}
	for _, want := range []string{
		`1 [fillcolor="green" label="Function\nf" shape="box" style="filled" tooltip="Vector3" `,
		`4 [fillcolor="pink" label="IDTerm\nx" shape="ellipse" style="filled" tooltip="Vector3" xlabel="f.m:2:1" ]`,
		`5 [fillcolor="lightblue" label="UnaryExpr\n-" shape="box" style="filled" tooltip="Vector3" `,
		"1 -> 2\n",
		"2 -> 3\n",
		"3 -> 4\n",
		"3 -> 5\n",
		"5 -> 6\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("graph does not contain %q:\n%s", want, out)
		}
	}
}

func TestMakeDotErrors(t *testing.T) {
	var b strings.Builder
	if err := makeDot("bad.m", strings.NewReader("x = 1\n"), &shape.Seed{}, &b); err == nil {
		t.Error("expected parse error")
	}
	if err := makeDot("g.m", strings.NewReader("function y = g(y)\nend\n"), &shape.Seed{}, &b); err == nil {
		t.Error("expected missing return shape error")
	}
}
