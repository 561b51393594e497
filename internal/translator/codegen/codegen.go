// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package codegen emits Eigen C++ source for a checked function.  It reads
// only the annotations left by the checker, and never infers shapes itself.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/errors"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

// codegen holds the output of a code generation pass.
type codegen struct {
	depth  int // indentation, in units of two spaces
	output strings.Builder
	line   strings.Builder

	errors errors.ErrorList
}

// CodeGen returns the C++ text of fn, which must have been canonicalized
// and checked.
func CodeGen(fn *ast.Function) (string, error) {
	if fn == nil {
		return "", errors.Errorf("no function to generate")
	}
	c := &codegen{}
	ast.Walk(c, fn)
	if len(c.errors) > 0 {
		return "", c.errors
	}
	return c.output.String(), nil
}

func (c *codegen) errorf(pos *position.Position, format string, args ...interface{}) {
	c.errors.Add(pos, "Internal code generation error: "+fmt.Sprintf(format, args...))
}

func (c *codegen) indent() {
	c.depth++
}

func (c *codegen) outdent() {
	c.depth--
}

func (c *codegen) emit(s string) {
	c.line.WriteString(s)
}

func (c *codegen) newline() {
	if c.line.Len() > 0 {
		c.output.WriteString(strings.Repeat("  ", c.depth))
		c.output.WriteString(c.line.String())
	}
	c.output.WriteString("\n")
	c.line.Reset()
}

// VisitBefore emits each statement.  Expressions are rendered by expr.
func (c *codegen) VisitBefore(node ast.Node) (ast.Visitor, ast.Node) {
	switch n := node.(type) {
	case *ast.Function:
		params := make([]string, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, param(p))
		}
		c.emit(fmt.Sprintf("%s %s(%s) {", shape.TypeName(n.ReturnShape), n.Name, strings.Join(params, ", ")))
		c.newline()
		c.indent()
		if n.Body != nil {
			ast.Walk(c, n.Body)
		}
		c.emit("return " + n.ReturnObj + ";")
		c.newline()
		c.outdent()
		c.emit("}")
		c.newline()

	case *ast.StmtList:
		for _, child := range n.Children {
			ast.Walk(c, child)
		}

	case *ast.Assign:
		target, value := c.expr(n.Target), c.expr(n.Value)
		if n.Declare {
			c.emit(shape.TypeName(n.Target.Shape()) + " ")
		}
		c.emit(target + " = " + value + ";")
		c.newline()

	case *ast.CondStmt:
		cond := n.Cond
		if p, ok := cond.(*ast.ParenExpr); ok {
			cond = p.Expr
		}
		c.emit("if (" + c.expr(cond) + ") {")
		c.newline()
		c.indent()
		ast.Walk(c, n.Body)
		c.outdent()
		c.emit("}")
		c.newline()

	case *ast.Normalize:
		c.emit(n.Name + ".normalize();")
		c.newline()

	case *ast.Comment:
		c.emit("// " + n.Text)
		c.newline()

	case *ast.Unparsed:
		c.emit("// " + n.Text + "; // line could not be parsed")
		c.newline()

	case *ast.BlankLine:
		c.newline()

	case *ast.PersistentDecl:
		c.errorf(n.Pos(), "persistent declaration of %s was not hoisted", strings.Join(n.Names, ", "))

	default:
		c.errorf(n.Pos(), "unexpected statement %T", n)
	}
	return nil, node
}

// VisitAfter is never reached, as VisitBefore handles every node.
func (c *codegen) VisitAfter(node ast.Node) ast.Node {
	return node
}

// param renders a function parameter declaration.
func param(p *ast.Param) string {
	t := p.Name + "_t"
	if p.Known {
		t = shape.TypeName(p.Shape)
	}
	if p.ByRef {
		t += "&"
	}
	return t + " " + p.Name
}

// operand renders n for use as the receiver of a method call or the operand
// of a unary operator.
func (c *codegen) operand(n ast.Node) string {
	switch v := n.(type) {
	case *ast.BinaryExpr:
		return "(" + c.expr(n) + ")"
	case *ast.UnaryExpr:
		if v.Op == ast.Neg {
			return "(" + c.expr(n) + ")"
		}
	}
	return c.expr(n)
}

func ref(r ast.Ref) string {
	if r.Struct != "" {
		return r.Struct + "." + r.Name
	}
	return r.Name
}

func (c *codegen) exprs(l []ast.Node) string {
	r := make([]string, 0, len(l))
	for _, n := range l {
		r = append(r, c.expr(n))
	}
	return strings.Join(r, ", ")
}

// expr renders an expression.
func (c *codegen) expr(n ast.Node) string {
	glog.V(2).Infof("expr %T at %s", n, n.Pos())
	switch v := n.(type) {
	case *ast.IntLit:
		return v.Text
	case *ast.FloatLit:
		return v.Text
	case *ast.IDTerm:
		return ref(v.Ref)
	case *ast.SegmentExpr:
		return fmt.Sprintf("%s.segment<%d>(%d)", ref(v.Ref), v.Range.Width(), v.Range.Start-1)
	case *ast.BlockExpr:
		return fmt.Sprintf("%s.block<%d, %d>(%d, %d)", ref(v.Ref), v.Rows.Width(), v.Cols.Width(), v.Rows.Start-1, v.Cols.Start-1)
	case *ast.ElementExpr:
		return ref(v.Ref) + "(" + strconv.FormatInt(v.Index-1, 10) + ")"
	case *ast.InlineMatrix:
		if len(v.Elems) == 1 && v.Elems[0].Shape().IsScalar() {
			return c.expr(v.Elems[0])
		}
		return fmt.Sprintf("(%s() << %s).finished()", shape.TypeName(v.Shape()), c.exprs(v.Elems))
	case *ast.ParenExpr:
		return "(" + c.expr(v.Expr) + ")"
	case *ast.UnaryExpr:
		switch v.Op {
		case ast.Neg:
			return "-" + c.operand(v.Expr)
		case ast.Transpose:
			if v.Expr.Shape().IsScalar() {
				return c.expr(v.Expr)
			}
			return c.operand(v.Expr) + ".transpose()"
		}
	case *ast.BinaryExpr:
		return c.binary(v)
	case *ast.CallExpr:
		return c.call(v)
	}
	c.errorf(n.Pos(), "unexpected expression %T", n)
	return ""
}

func (c *codegen) binary(n *ast.BinaryExpr) string {
	l, r := n.LHS.Shape(), n.RHS.Shape()
	lhs, rhs := c.expr(n.LHS), c.expr(n.RHS)
	switch n.Op {
	case ast.Div:
		if !r.IsScalar() {
			return lhs + " * " + c.operand(n.RHS) + ".inverse()"
		}
	case ast.Pow:
		if l.IsScalar() {
			return "pow(" + lhs + ", " + rhs + ")"
		}
		return c.operand(n.LHS) + ".pow(" + rhs + ")"
	case ast.ElemMul:
		if l.IsScalar() || r.IsScalar() {
			return lhs + " * " + rhs
		}
		return c.operand(n.LHS) + ".cwiseProduct(" + rhs + ")"
	case ast.ElemDiv:
		if l.IsScalar() || r.IsScalar() {
			return lhs + " / " + rhs
		}
		return c.operand(n.LHS) + ".cwiseQuotient(" + rhs + ")"
	case ast.ElemPow:
		if l.IsScalar() {
			return "pow(" + lhs + ", " + rhs + ")"
		}
		return c.operand(n.LHS) + ".array().pow(" + rhs + ").matrix()"
	case ast.Ne:
		return lhs + " != " + rhs
	}
	return lhs + " " + n.Op.String() + " " + rhs
}

// scalarMath maps elementary functions to their scalar and coefficient-wise forms.
var scalarMath = map[string]struct{ scalar, matrix string }{
	"abs":  {"std::abs(%s)", "%s.cwiseAbs()"},
	"exp":  {"std::exp(%s)", "%s.array().exp().matrix()"},
	"sqrt": {"std::sqrt(%s)", "%s.cwiseSqrt()"},
}

var cwise = map[string]string{"min": "cwiseMin", "max": "cwiseMax"}

func (c *codegen) call(n *ast.CallExpr) string {
	s := n.Shape()
	switch n.Name {
	case "eye", "ones":
		if s.IsScalar() {
			return "1.0f"
		}
		if n.Name == "eye" {
			return shape.TypeName(s) + "::Identity()"
		}
		return shape.TypeName(s) + "::Ones()"
	case "zeros":
		if s.IsScalar() {
			return "0.0f"
		}
		return shape.TypeName(s) + "::Zero()"
	case "norm":
		if len(n.Args) == 1 {
			return c.operand(n.Args[0]) + ".norm()"
		}
	case "expm":
		if len(n.Args) == 1 {
			return c.operand(n.Args[0]) + ".exp()"
		}
	case "diag":
		if len(n.Args) == 1 {
			return shape.TypeName(s) + "(" + c.operand(n.Args[0]) + ".asDiagonal())"
		}
	case "cross":
		if len(n.Args) == 2 {
			return c.operand(n.Args[0]) + ".cross(" + c.expr(n.Args[1]) + ")"
		}
	case "abs", "exp", "sqrt":
		if len(n.Args) == 1 {
			f := scalarMath[n.Name]
			if n.Args[0].Shape().IsScalar() {
				return fmt.Sprintf(f.scalar, c.expr(n.Args[0]))
			}
			return fmt.Sprintf(f.matrix, c.operand(n.Args[0]))
		}
	case "min", "max":
		if len(n.Args) == 2 {
			if n.Args[0].Shape().IsScalar() && n.Args[1].Shape().IsScalar() {
				return "std::" + n.Name + "(" + c.exprs(n.Args) + ")"
			}
			m, o := n.Args[0], n.Args[1]
			if m.Shape().IsScalar() {
				m, o = o, m
			}
			return c.operand(m) + "." + cwise[n.Name] + "(" + c.expr(o) + ")"
		}
	}
	return n.Name + "(" + c.exprs(n.Args) + ")"
}
