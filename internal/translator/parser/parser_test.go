// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package parser_test

import (
	"strings"
	"testing"

	"github.com/ml2eigen/ml2eigen/internal/testutil"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/parser"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
)

func id(name string) *ast.IDTerm {
	return &ast.IDTerm{Ref: ast.Ref{Name: name}}
}

func num(i int64, text string) *ast.IntLit {
	return &ast.IntLit{I: i, Text: text}
}

func bin(op ast.Op, l, r ast.Node) *ast.BinaryExpr {
	return &ast.BinaryExpr{LHS: l, RHS: r, Op: op}
}

func assign(target, value ast.Node) *ast.Assign {
	return &ast.Assign{Target: target, Value: value}
}

// wrap puts body inside a function `r = f(a, b)`.
func wrap(body string) string {
	return "function r = f(a, b)\n" + body + "\nend\n"
}

func fn(stmts ...ast.Node) *ast.Function {
	return &ast.Function{
		Name:      "f",
		ReturnObj: "r",
		Params:    []*ast.Param{{Name: "a"}, {Name: "b"}},
		Body:      &ast.StmtList{Children: stmts},
	}
}

var parserTests = []struct {
	name string
	src  string
	want *ast.Function
}{
	{"empty function",
		"function y = g\nend",
		&ast.Function{Name: "g", ReturnObj: "y", Body: &ast.StmtList{}},
	},
	{"empty parameter list",
		"function y = g()\ny = 1;\nend",
		&ast.Function{Name: "g", ReturnObj: "y", Body: &ast.StmtList{Children: []ast.Node{
			assign(id("y"), num(1, "1")),
		}}},
	},
	{"sum",
		wrap("r = a + b;"),
		fn(assign(id("r"), bin(ast.Add, id("a"), id("b")))),
	},
	{"precedence",
		wrap("r = a + b * c';"),
		fn(assign(id("r"), bin(ast.Add, id("a"),
			bin(ast.Mul, id("b"), &ast.UnaryExpr{Op: ast.Transpose, Expr: id("c")})))),
	},
	{"left associative",
		wrap("r = a - b - c;"),
		fn(assign(id("r"), bin(ast.Sub, bin(ast.Sub, id("a"), id("b")), id("c")))),
	},
	{"negated power",
		wrap("r = -a ^ 2;"),
		fn(assign(id("r"), &ast.UnaryExpr{Op: ast.Neg, Expr: bin(ast.Pow, id("a"), num(2, "2"))})),
	},
	{"negative exponent",
		wrap("r = a ^ -2;"),
		fn(assign(id("r"), bin(ast.Pow, id("a"), &ast.UnaryExpr{Op: ast.Neg, Expr: num(2, "2")}))),
	},
	{"elementwise",
		wrap("r = a .* b ./ c .^ 2;"),
		fn(assign(id("r"), bin(ast.ElemDiv, bin(ast.ElemMul, id("a"), id("b")), bin(ast.ElemPow, id("c"), num(2, "2"))))),
	},
	{"parens and floats",
		wrap("r = (a + 1.5) * 1e5;"),
		fn(assign(id("r"), bin(ast.Mul,
			&ast.ParenExpr{Expr: bin(ast.Add, id("a"), &ast.FloatLit{F: 1.5, Text: "1.5"})},
			&ast.FloatLit{F: 1e5, Text: "1e5"}))),
	},
	{"matrix accesses",
		wrap("r = x(1:3) + P(1:3, 4:6) + z([1:3 7:9]);"),
		fn(assign(id("r"), bin(ast.Add,
			bin(ast.Add,
				&ast.SegmentExpr{Ref: ast.Ref{Name: "x"}, Range: ast.Range{Start: 1, End: 3}},
				&ast.BlockExpr{Ref: ast.Ref{Name: "P"}, Rows: ast.Range{Start: 1, End: 3}, Cols: ast.Range{Start: 4, End: 6}}),
			&ast.MultiSegmentExpr{Ref: ast.Ref{Name: "z"}, Ranges: []ast.Range{{Start: 1, End: 3}, {Start: 7, End: 9}}}))),
	},
	{"struct fields",
		wrap("s.m = s.v(2) * c.g(1:3);"),
		fn(assign(&ast.IDTerm{Ref: ast.Ref{Struct: "s", Name: "m"}}, bin(ast.Mul,
			&ast.ElementExpr{Ref: ast.Ref{Struct: "s", Name: "v"}, Index: 2},
			&ast.SegmentExpr{Ref: ast.Ref{Struct: "c", Name: "g"}, Range: ast.Range{Start: 1, End: 3}}))),
	},
	{"calls",
		wrap("r = eye(3) + f(x, 1) + norm(x);"),
		fn(assign(id("r"), bin(ast.Add,
			bin(ast.Add,
				&ast.CallExpr{Name: "eye", Args: []ast.Node{num(3, "3")}},
				&ast.CallExpr{Name: "f", Args: []ast.Node{id("x"), num(1, "1")}}),
			&ast.CallExpr{Name: "norm", Args: []ast.Node{id("x")}}))),
	},
	{"inline matrix",
		wrap("r = [a; b(1:2); 1];"),
		fn(assign(id("r"), &ast.InlineMatrix{Elems: []ast.Node{
			id("a"),
			&ast.SegmentExpr{Ref: ast.Ref{Name: "b"}, Range: ast.Range{Start: 1, End: 2}},
			num(1, "1"),
		}})),
	},
	{"segment assignment",
		wrap("r(4:6) = a;"),
		fn(assign(&ast.SegmentExpr{Ref: ast.Ref{Name: "r"}, Range: ast.Range{Start: 4, End: 6}}, id("a"))),
	},
	{"conditional",
		wrap("if a ~= b && c < 1\n  r = a;\nend"),
		fn(&ast.CondStmt{
			Cond: bin(ast.And, bin(ast.Ne, id("a"), id("b")), bin(ast.Lt, id("c"), num(1, "1"))),
			Body: &ast.StmtList{Children: []ast.Node{assign(id("r"), id("a"))}},
		}),
	},
	{"nested conditional",
		wrap("if a\nif b\nr = 1;\nend\nend"),
		fn(&ast.CondStmt{
			Cond: id("a"),
			Body: &ast.StmtList{Children: []ast.Node{&ast.CondStmt{
				Cond: id("b"),
				Body: &ast.StmtList{Children: []ast.Node{assign(id("r"), num(1, "1"))}},
			}}},
		}),
	},
	{"persistent",
		wrap("persistent p q"),
		fn(&ast.PersistentDecl{Names: []string{"p", "q"}}),
	},
	{"comments and blank lines",
		wrap("% predict\nr = a; % trailing\n\nr = b;"),
		fn(
			&ast.Comment{Text: "predict"},
			assign(id("r"), id("a")),
			&ast.Comment{Text: "trailing"},
			&ast.BlankLine{},
			assign(id("r"), id("b")),
		),
	},
	{"leading comment",
		"% header\nfunction r = f(a, b)\nend",
		fn(&ast.Comment{Text: "header"}),
	},
	{"unparsed statement",
		wrap("r = a +;\nr = b;"),
		fn(&ast.Unparsed{Text: "r = a +"}, assign(id("r"), id("b"))),
	},
	{"unparsed without terminator",
		wrap("disp r\nr = b;"),
		fn(&ast.Unparsed{Text: "disp r"}, assign(id("r"), id("b"))),
	},
	{"multi segment target is unparsed",
		wrap("r([1:2 4:5]) = a;"),
		fn(&ast.Unparsed{Text: "r([1:2 4:5]) = a"}),
	},
	{"unparsed conditional keeps its end",
		wrap("if a b\nr = 1;\nend"),
		fn(&ast.Unparsed{Text: "if a b"}, assign(id("r"), num(1, "1")), &ast.Unparsed{Text: "end"}),
	},
}

func TestParse(t *testing.T) {
	for _, tc := range parserTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parser.Parse(tc.name, strings.NewReader(tc.src))
			testutil.FatalIfErr(t, err)
			testutil.ExpectNoDiff(t, tc.want, got, testutil.IgnoreTypes(position.Position{}), testutil.EquateEmpty())
		})
	}
}

var parseErrorTests = []struct {
	name string
	src  string
	want string
}{
	{"no function", "x = 1;\n", "no function:1:1: expected FUNCTION, found ID"},
	{"missing end", "function r = f(a)\nr = a;\n", "missing end:3:1: expected `end' closing function f"},
	{"trailing statement", "function r = f(a)\nend\nx = 1;\n", "trailing statement:3:1: unexpected ID"},
}

func TestParseErrors(t *testing.T) {
	for _, tc := range parseErrorTests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.ParseString(tc.name, tc.src)
			if err == nil {
				t.Fatalf("expected error, got none")
			}
			if !strings.HasPrefix(err.Error(), tc.want) {
				t.Errorf("error %q does not start with %q", err, tc.want)
			}
		})
	}
}

func TestStatementPositions(t *testing.T) {
	f, err := parser.ParseString("pos", wrap("r = a;\n\nr = b;"))
	testutil.FatalIfErr(t, err)
	want := []int{1, 2, 3}
	var got []int
	for _, n := range f.Body.Children {
		got = append(got, n.Pos().Line)
	}
	testutil.ExpectNoDiff(t, want, got)
}

func TestSexp(t *testing.T) {
	f, err := parser.ParseString("sexp", wrap("persistent p\nr = -z([1:3 7:9]);\ndisp r"))
	testutil.FatalIfErr(t, err)
	s := parser.Sexp{}
	got := s.Dump(f)
	for _, want := range []string{
		`"f" returns "r" a b`,
		"persistent p",
		`"z" [1:3 7:9]`,
		`unparsed "disp r"`,
		"@ sexp:3:1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dump does not contain %q:\n%s", want, got)
		}
	}
}
