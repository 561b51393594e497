// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package checker_test

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/ml2eigen/ml2eigen/internal/testutil"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/canon"
	"github.com/ml2eigen/ml2eigen/internal/translator/checker"
	"github.com/ml2eigen/ml2eigen/internal/translator/errors"
	"github.com/ml2eigen/ml2eigen/internal/translator/parser"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

func testEnv() *shape.Env {
	s := &shape.Seed{
		Shapes: map[string]shape.Shape{
			"x":    shape.Vector(13),
			"P":    shape.Matrix(9, 9),
			"q":    shape.Vector(4),
			"s":    shape.Scalar,
			"M":    shape.Matrix(3, 4),
			"N":    shape.Matrix(4, 2),
			"z":    shape.Vector(15),
			"c.g":  shape.Scalar,
			"c.v":  shape.Vector(3),
			"M_PI": shape.Scalar,
		},
		Returns: map[string]shape.Shape{
			"f": shape.Vector(13),
			"g": shape.Vector(4),
		},
	}
	return s.Env("f")
}

// check runs the front end over body, inside `function x = f(x, P)`.
func check(t *testing.T, body string, env *shape.Env) (*ast.Function, errors.WarningList, error) {
	t.Helper()
	return checkSource(t, "function x = f(x, P)\n"+body+"\nend\n", env)
}

func checkSource(t *testing.T, src string, env *shape.Env) (*ast.Function, errors.WarningList, error) {
	t.Helper()
	f, err := parser.ParseString(t.Name(), src)
	testutil.FatalIfErr(t, err)
	f, err = canon.Canonicalize(f)
	testutil.FatalIfErr(t, err)
	return checker.Check(t.Name(), f, env)
}

func stmt(f *ast.Function, i int) *ast.Assign {
	return f.Body.Children[i].(*ast.Assign)
}

var exprTests = []struct {
	expr     string
	want     shape.Shape
	warnings int
}{
	{"1.5", shape.Scalar, 0},
	{"x", shape.Vector(13), 0},
	{"x'", shape.Matrix(1, 13), 0},
	{"-x", shape.Vector(13), 0},
	{"(M)'", shape.Matrix(4, 3), 0},
	{"c.v", shape.Vector(3), 0},
	{"x(4:6)", shape.Vector(3), 0},
	{"P(1:3, 4:6)", shape.Matrix(3, 3), 0},
	{"x(3)", shape.Scalar, 0},
	{"z([1:3 7:9])", shape.Vector(6), 0},
	{"[x(1:3); q]", shape.Vector(7), 0},
	{"[x(1:3); M]", shape.Vector(6), 1},
	{"P * x(1:9)", shape.Vector(9), 0},
	{"M * N", shape.Matrix(3, 2), 0},
	{"M * M", shape.Matrix(3, 4), 1},
	{"2 * P", shape.Matrix(9, 9), 0},
	{"P * c.g", shape.Matrix(9, 9), 0},
	{"P / 2", shape.Matrix(9, 9), 0},
	{"P / P", shape.Matrix(9, 9), 0},
	{"x + x", shape.Vector(13), 0},
	{"x + q", shape.Vector(13), 1},
	{"x - 1", shape.Vector(13), 1},
	{"x .* x", shape.Vector(13), 0},
	{"2 .* x", shape.Vector(13), 0},
	{"x .* q", shape.Vector(13), 1},
	{"x ./ s", shape.Vector(13), 0},
	{"M ^ 2", shape.Matrix(3, 4), 0},
	{"q .^ 2", shape.Vector(4), 0},
	{"x > 0 && s ~= 1", shape.Scalar, 0},
	{"pi", shape.Scalar, 0},
	{"eye(3)", shape.Matrix(3, 3), 0},
	{"zeros(3, 4)", shape.Matrix(3, 4), 0},
	{"zeros(2)", shape.Matrix(2, 2), 0},
	{"ones(2, 1)", shape.Vector(2), 0},
	{"norm(x)", shape.Scalar, 0},
	{"diag(q)", shape.Matrix(4, 4), 0},
	{"expm(P)", shape.Matrix(9, 9), 0},
	{"cross(x(1:3), q(2:4))", shape.Vector(3), 0},
	{"abs(q) + sqrt(q) + exp(q)", shape.Vector(4), 0},
	{"max(s, 2)", shape.Scalar, 0},
	{"g(x)", shape.Vector(4), 0},
	{"nope", shape.Unknown, 1},
	{"nope(x)", shape.Unknown, 1},
	{"nope * x", shape.Unknown, 1},
	{"x * nope", shape.Unknown, 1},
	{"x + nope", shape.Unknown, 1},
	{"q .* nope(x)", shape.Unknown, 1},
}

func TestExpressionShapes(t *testing.T) {
	for _, tc := range exprTests {
		tc := tc
		t.Run(tc.expr, func(t *testing.T) {
			f, w, err := check(t, "y = "+tc.expr+";", testEnv())
			testutil.FatalIfErr(t, err)
			a := stmt(f, 0)
			testutil.ExpectNoDiff(t, tc.want, a.Value.Shape())
			if !a.Declare {
				t.Error("expected y to be declared")
			}
			if len(w) != tc.warnings {
				t.Errorf("want %d warnings, got %d:\n%s", tc.warnings, len(w), w)
			}
		})
	}
}

var fatalTests = []struct {
	name string
	body string
	want string
}{
	{"eye of name", "y = eye(s);", "eye expects one integer literal argument"},
	{"eye of zero", "y = eye(0);", "eye expects one integer literal argument"},
	{"zeros without arguments", "y = zeros();", "zeros expects one or two integer literal arguments"},
	{"ones of three", "y = ones(1, 2, 3);", "ones expects one or two integer literal arguments"},
	{"expm without arguments", "y = expm();", "expm expects an argument"},
	{"diag of matrix", "y = diag(M);", "diag expects a single vector argument"},
}

func TestFatalErrors(t *testing.T) {
	for _, tc := range fatalTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := check(t, tc.body, testEnv())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err, tc.want)
			}
		})
	}
}

func TestMissingReturnShape(t *testing.T) {
	env := shape.NewEnv()
	env.Insert("x", shape.Vector(3))
	_, _, err := check(t, "y = x;", env)
	if err == nil || !strings.Contains(err.Error(), "no return shape `_self' for function f") {
		t.Errorf("unexpected error %v", err)
	}
	_, _, err = check(t, "y = x;", nil)
	if err == nil {
		t.Error("expected error with nil environment")
	}
}

func TestDeclarations(t *testing.T) {
	f, w, err := check(t, "y = x;\ny = q;\nx = q;\nx(1:4) = q;\nP(1:2, 1:2) = q;", testEnv())
	testutil.FatalIfErr(t, err)
	var got []bool
	for i := range f.Body.Children {
		got = append(got, stmt(f, i).Declare)
	}
	testutil.ExpectNoDiff(t, []bool{true, false, false, false, false}, got)

	want := []string{
		"TestDeclarations:3:1-5: shape mismatch: assigning (4,1) to y of shape (13,1) on line 2",
		"TestDeclarations:4:1-5: shape mismatch: assigning (4,1) to x of shape (13,1) on line 3",
		"TestDeclarations:6:1-15: shape mismatch: assigning (4,1) to P of shape (2,2) on line 5",
	}
	testutil.ExpectNoDiff(t, want, w.Strings())
}

func TestStructFieldDeclaration(t *testing.T) {
	f, w, err := check(t, "c.w = q;\nc.v = q;", testEnv())
	testutil.FatalIfErr(t, err)
	if !stmt(f, 0).Declare || stmt(f, 1).Declare {
		t.Error("expected only c.w to be declared")
	}
	if len(w) != 1 {
		t.Errorf("expected one warning for c.v, got %s", w)
	}
}

func TestUnknownParameter(t *testing.T) {
	f, w, err := check(t, "persistent p\np = g(x);\nr = p;\np = P;", testEnv())
	testutil.FatalIfErr(t, err)
	if stmt(f, 0).Declare {
		t.Error("parameter p must not be declared")
	}
	r := stmt(f, 1)
	if !r.Declare {
		t.Error("expected r to be declared")
	}
	testutil.ExpectNoDiff(t, shape.Vector(4), r.Value.Shape())
	if len(w) != 1 || !strings.Contains(w.String(), "assigning (9,9) to p of shape (4,1)") {
		t.Errorf("unexpected warnings %s", w)
	}

	byName := map[string]*ast.Param{}
	for _, p := range f.Params {
		byName[p.Name] = p
	}
	testutil.ExpectNoDiff(t, &ast.Param{Name: "x", Shape: shape.Vector(13), Known: true}, byName["x"])
	testutil.ExpectNoDiff(t, &ast.Param{Name: "p", ByRef: true}, byName["p"])
}

func TestConditionalScope(t *testing.T) {
	f, w, err := check(t, "if s > 0\nt = q;\nx = x;\nend\nu = t;", testEnv())
	testutil.FatalIfErr(t, err)
	cond := f.Body.Children[0].(*ast.CondStmt)
	if !cond.Body.Children[0].(*ast.Assign).Declare {
		t.Error("expected t to be declared inside the conditional")
	}
	if cond.Body.Children[1].(*ast.Assign).Declare {
		t.Error("x must not be redeclared inside the conditional")
	}
	u := stmt(f, 1)
	if !u.Declare {
		t.Error("expected u to be declared")
	}
	testutil.ExpectNoDiff(t, shape.Unknown, u.Value.Shape())
	if len(w) != 1 || !strings.Contains(w.String(), "unknown shape for t") {
		t.Errorf("unexpected warnings %s", w)
	}
}

func TestUnparsedWarning(t *testing.T) {
	f, w, err := check(t, "y = x;\ndisp y\nr = q;", testEnv())
	testutil.FatalIfErr(t, err)
	if len(f.Body.Children) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(f.Body.Children))
	}
	testutil.ExpectNoDiff(t, []string{`TestUnparsedWarning:3:1-4: could not parse "disp y"`}, w.Strings())
}

func TestReturnObjectShape(t *testing.T) {
	_, w, err := checkSource(t, "function y = f(x)\ny = q;\nend\n", testEnv())
	testutil.FatalIfErr(t, err)
	if len(w) != 1 || !strings.Contains(w.String(), "return object y has shape (4,1), want (13,1)") {
		t.Errorf("unexpected warnings %s", w)
	}

	_, w, err = checkSource(t, "function y = f(x)\nend\n", testEnv())
	testutil.FatalIfErr(t, err)
	if len(w) != 1 || !strings.Contains(w.String(), "return object y is never assigned") {
		t.Errorf("unexpected warnings %s", w)
	}
}

func TestLineCounterPositions(t *testing.T) {
	env := shape.NewEnv()
	env.Insert(shape.ReturnKey, shape.Scalar)
	env.Insert("r", shape.Scalar)
	f := &ast.Function{
		Name:      "f",
		ReturnObj: "r",
		Body: &ast.StmtList{Children: []ast.Node{
			&ast.Comment{Text: "synthesized"},
			&ast.Assign{Target: &ast.IDTerm{Ref: ast.Ref{Name: "y"}}, Value: &ast.IDTerm{Ref: ast.Ref{Name: "nope"}}},
		}},
	}
	_, w, err := checker.Check("gen", f, env)
	testutil.FatalIfErr(t, err)
	testutil.ExpectNoDiff(t, []string{"gen:2:1: unknown shape for nope"}, w.Strings())
}

func TestCheckDoesNotModifyEnv(t *testing.T) {
	env := testEnv()
	n := env.Len()
	_, _, err := check(t, "y = x;\nw = q;", env)
	testutil.FatalIfErr(t, err)
	if env.Len() != n {
		t.Errorf("environment grew from %d to %d names", n, env.Len())
	}
}

func TestTransposeIsAnInvolution(t *testing.T) {
	f := func(r, c uint8) bool {
		want := shape.Matrix(int(r)%50+1, int(c)%50+1)
		env := shape.NewEnv()
		env.Insert(shape.ReturnKey, want)
		env.Insert("x", want)
		env.Insert("a", want)
		fn, _, err := check(t, "y = a';\nw = a'';", env)
		if err != nil {
			return false
		}
		return stmt(fn, 0).Value.Shape() == want.Transpose() && stmt(fn, 1).Value.Shape() == want
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestNodePositionsAreKept(t *testing.T) {
	f, _, err := check(t, "y = nope;", testEnv())
	testutil.FatalIfErr(t, err)
	got := stmt(f, 0).Value.Pos()
	testutil.ExpectNoDiff(t, &position.Position{Filename: "TestNodePositionsAreKept", Line: 1, Startcol: 4, Endcol: 7}, got)
}
