// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package ast_test

import (
	"testing"

	"github.com/ml2eigen/ml2eigen/internal/testutil"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

func id(name string, line, col int) *ast.IDTerm {
	return &ast.IDTerm{
		P:   position.Position{Filename: "t", Line: line, Startcol: col, Endcol: col + len(name) - 1},
		Ref: ast.Ref{Name: name},
	}
}

// sample is `function y = f(x)\n% c\nif x > 1\n  y = [x; -x'];\nend\nend`.
func sample() *ast.Function {
	return &ast.Function{
		Name:      "f",
		ReturnObj: "y",
		Params:    []*ast.Param{{Name: "x"}},
		Body: &ast.StmtList{Children: []ast.Node{
			&ast.Comment{Text: "c"},
			&ast.CondStmt{
				Cond: &ast.BinaryExpr{LHS: id("x", 2, 3), RHS: &ast.IntLit{I: 1, Text: "1"}, Op: ast.Gt},
				Body: &ast.StmtList{Children: []ast.Node{
					&ast.Assign{
						Target: id("y", 3, 2),
						Value: &ast.InlineMatrix{Elems: []ast.Node{
							id("x", 3, 7),
							&ast.UnaryExpr{Op: ast.Neg, Expr: &ast.UnaryExpr{Op: ast.Transpose, Expr: id("x", 3, 11)}},
						}},
					},
				}},
			},
		}},
	}
}

type counter struct {
	before map[string]int
	after  int
}

func (c *counter) VisitBefore(n ast.Node) (ast.Visitor, ast.Node) {
	if id, ok := n.(*ast.IDTerm); ok {
		c.before[id.Name]++
	}
	return c, n
}

func (c *counter) VisitAfter(n ast.Node) ast.Node {
	c.after++
	return n
}

func TestWalkVisitsEveryNode(t *testing.T) {
	c := &counter{before: map[string]int{}}
	ast.Walk(c, sample())
	testutil.ExpectNoDiff(t, map[string]int{"x": 3, "y": 1}, c.before)
	// Function, 2 lists, comment, cond, binary, 4 ids, literal, assign, matrix, 2 unary.
	if c.after != 15 {
		t.Errorf("VisitAfter called %d times, want 15", c.after)
	}
}

// dropComments removes comments from statement lists.
type dropComments struct{}

func (dropComments) VisitBefore(n ast.Node) (ast.Visitor, ast.Node) {
	return dropComments{}, n
}

func (dropComments) VisitAfter(n ast.Node) ast.Node {
	if _, ok := n.(*ast.Comment); ok {
		return nil
	}
	return n
}

func TestWalkRemovesNilNodes(t *testing.T) {
	f := ast.Walk(dropComments{}, sample()).(*ast.Function)
	if len(f.Body.Children) != 1 {
		t.Fatalf("body has %d statements, want 1", len(f.Body.Children))
	}
	if _, ok := f.Body.Children[0].(*ast.CondStmt); !ok {
		t.Errorf("remaining statement is %T", f.Body.Children[0])
	}
}

// skip handles every node itself, so Walk must not descend.
type skip struct{ visited int }

func (s *skip) VisitBefore(n ast.Node) (ast.Visitor, ast.Node) {
	s.visited++
	return nil, n
}

func (s *skip) VisitAfter(n ast.Node) ast.Node {
	panic("VisitAfter called after VisitBefore returned nil")
}

func TestWalkNilVisitorSkipsChildren(t *testing.T) {
	s := &skip{}
	ast.Walk(s, sample())
	if s.visited != 1 {
		t.Errorf("visited %d nodes, want 1", s.visited)
	}
}

func TestCopyIsDeep(t *testing.T) {
	orig := sample()
	c := ast.Copy(orig).(*ast.Function)
	testutil.ExpectNoDiff(t, orig, c)

	c.Params[0].ByRef = true
	c.Params = append(c.Params, &ast.Param{Name: "P"})
	assign := c.Body.Children[1].(*ast.CondStmt).Body.Children[0].(*ast.Assign)
	assign.Target.(*ast.IDTerm).SetShape(shape.Vector(2))
	assign.Value.(*ast.InlineMatrix).Elems[0] = &ast.IntLit{I: 0, Text: "0"}

	testutil.ExpectNoDiff(t, sample(), orig)
}

func TestCopyNil(t *testing.T) {
	if ast.Copy(nil) != nil {
		t.Error("Copy(nil) is not nil")
	}
}

func TestPositions(t *testing.T) {
	f := sample()
	cond := f.Body.Children[1].(*ast.CondStmt).Cond
	// The binary expression spans only its identifier, as the literal has no position.
	testutil.ExpectNoDiff(t, "t:3:4", cond.Pos().String())

	m := f.Body.Children[1].(*ast.CondStmt).Body.Children[0].(*ast.Assign).Value.(*ast.InlineMatrix)
	neg := m.Elems[1]
	testutil.ExpectNoDiff(t, "t:4:12", neg.Pos().String())
}

func TestOps(t *testing.T) {
	for _, tc := range []struct {
		op      ast.Op
		spell   string
		logical bool
	}{
		{ast.Neg, "-", false},
		{ast.Transpose, "'", false},
		{ast.ElemPow, ".^", false},
		{ast.And, "&&", true},
		{ast.Ne, "~=", true},
		{ast.Ge, ">=", true},
		{ast.Op(0), "?", false},
	} {
		if tc.op.String() != tc.spell || tc.op.IsLogical() != tc.logical {
			t.Errorf("%d: got %q, %v; want %q, %v", tc.op, tc.op, tc.op.IsLogical(), tc.spell, tc.logical)
		}
	}
}

func TestRefs(t *testing.T) {
	testutil.ExpectNoDiff(t, "constantsASTRA.Q", ast.Ref{Struct: "constantsASTRA", Name: "Q"}.Qualified())
	testutil.ExpectNoDiff(t, "x", ast.Ref{Name: "x"}.Qualified())
	testutil.ExpectNoDiff(t, 3, ast.Range{Start: 4, End: 6}.Width())
}
