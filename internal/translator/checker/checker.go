// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package checker infers the shape of every expression in a canonical
// function, and records which assignments declare a new variable.
package checker

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/errors"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

// checker holds data for shape inference.
type checker struct {
	name string // source name, for positions of synthesized statements

	env    *shape.Env            // the current scope
	params map[string]*ast.Param // parameters of the function being checked

	line int      // count of statements seen so far
	stmt ast.Node // the statement being checked

	warnings errors.WarningList
	errors   errors.ErrorList
}

// Check infers shapes in fn against the environment env, annotating fn in
// place.  Shape disagreements are returned as warnings; the error is non-nil
// only for conditions that make the function untranslatable.  env is not
// modified.
func Check(name string, fn *ast.Function, env *shape.Env) (*ast.Function, errors.WarningList, error) {
	if env == nil {
		env = shape.NewEnv()
	}
	c := &checker{name: name, env: env.Copy(), params: make(map[string]*ast.Param)}
	ast.Walk(c, fn)
	if len(c.errors) > 0 {
		return fn, c.warnings, c.errors
	}
	return fn, c.warnings, nil
}

// pos returns the position to report a diagnostic about n at.
func (c *checker) pos(n ast.Node) *position.Position {
	if n != nil && !n.Pos().IsZero() {
		return n.Pos()
	}
	if c.stmt != nil && !c.stmt.Pos().IsZero() {
		return c.stmt.Pos()
	}
	return &position.Position{Filename: c.name, Line: c.line - 1}
}

func (c *checker) warnf(n ast.Node, format string, args ...interface{}) {
	p := c.pos(n)
	glog.V(1).Infof("%s: "+format, append([]interface{}{p}, args...)...)
	c.warnings.Addf(p, format, args...)
}

func (c *checker) errorf(n ast.Node, format string, args ...interface{}) {
	c.errors.Add(c.pos(n), fmt.Sprintf(format, args...))
}

// VisitBefore handles the statements, whose children need bespoke traversal.
func (c *checker) VisitBefore(node ast.Node) (ast.Visitor, ast.Node) {
	switch n := node.(type) {
	case *ast.Function:
		ret, ok := c.env.Lookup(shape.ReturnKey)
		if !ok {
			c.errors.Add(n.Pos(), fmt.Sprintf("no return shape `%s' for function %s", shape.ReturnKey, n.Name))
			return nil, n
		}
		n.ReturnShape = ret
		for _, p := range n.Params {
			c.params[p.Name] = p
			if s, ok := c.env.Lookup(p.Name); ok {
				p.Shape, p.Known = s, true
			} else {
				glog.V(1).Infof("parameter %s of %s has no known shape", p.Name, n.Name)
			}
		}
		return c, n

	case *ast.StmtList:
		return c, n

	case *ast.Assign:
		c.statement(n)
		n.Value = ast.Walk(c, n.Value)
		c.assign(n)
		return nil, n

	case *ast.CondStmt:
		c.statement(n)
		n.Cond = ast.Walk(c, n.Cond)
		if !n.Cond.Shape().IsScalar() {
			glog.V(1).Infof("%s: condition has shape %s", c.pos(n.Cond), n.Cond.Shape())
		}
		outer := c.env
		c.env = outer.Copy()
		n.Body = ast.Walk(c, n.Body).(*ast.StmtList)
		c.env = outer
		return nil, n

	case *ast.Unparsed:
		c.statement(n)
		c.warnf(n, "could not parse %q", n.Text)
		return nil, n

	case *ast.Comment, *ast.BlankLine, *ast.Normalize, *ast.PersistentDecl:
		c.statement(n)
		return nil, n
	}
	return c, node
}

func (c *checker) statement(n ast.Node) {
	c.line++
	c.stmt = n
}

// assign resolves the target of an assignment whose value is already inferred.
func (c *checker) assign(n *ast.Assign) {
	value := n.Value.Shape()
	var target shape.Shape
	switch t := n.Target.(type) {
	case *ast.IDTerm:
		key := t.Qualified()
		s, ok := c.env.Lookup(key)
		switch {
		case ok:
			target = s
		case t.Struct == "" && c.params[t.Name] != nil:
			// A parameter of unknown shape takes the shape of its first
			// assignment, but is not declared again.
			c.env.Insert(key, value)
			target = value
		default:
			n.Declare = true
			c.env.Insert(key, value)
			target = value
		}
		t.SetShape(target)
	case *ast.CallExpr:
		c.warnf(n, "can't assign to the result of %s()", t.Name)
		return
	default:
		n.Target = ast.Walk(c, n.Target)
		target = n.Target.Shape()
	}
	if value.IsUnknown() {
		return
	}
	if target != value {
		c.warnf(n, "shape mismatch: assigning %s to %s of shape %s on line %d", value, targetName(n.Target), target, c.line)
	}
}

func targetName(n ast.Node) string {
	switch t := n.(type) {
	case *ast.IDTerm:
		return t.Qualified()
	case *ast.SegmentExpr:
		return t.Qualified()
	case *ast.BlockExpr:
		return t.Qualified()
	case *ast.ElementExpr:
		return t.Qualified()
	}
	return fmt.Sprintf("%T", n)
}

// VisitAfter annotates expressions, bottom up.
func (c *checker) VisitAfter(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.Function:
		if s, ok := c.env.Lookup(n.ReturnObj); !ok {
			c.warnf(n, "return object %s is never assigned", n.ReturnObj)
		} else if s != n.ReturnShape {
			c.warnf(n, "return object %s has shape %s, want %s", n.ReturnObj, s, n.ReturnShape)
		}

	case *ast.IDTerm:
		s, ok := c.env.Lookup(n.Qualified())
		if !ok {
			c.warnf(n, "unknown shape for %s", n.Qualified())
		}
		n.SetShape(s)

	case *ast.SegmentExpr:
		n.SetShape(shape.Vector(n.Range.Width()))

	case *ast.MultiSegmentExpr:
		rows := 0
		for _, r := range n.Ranges {
			rows += r.Width()
		}
		n.SetShape(shape.Vector(rows))

	case *ast.BlockExpr:
		n.SetShape(shape.Matrix(n.Rows.Width(), n.Cols.Width()))

	case *ast.ElementExpr:
		n.SetShape(shape.Scalar)

	case *ast.InlineMatrix:
		elems := make([]shape.Shape, 0, len(n.Elems))
		for _, e := range n.Elems {
			elems = append(elems, e.Shape())
		}
		s, bad := shape.Concat(elems)
		if bad >= 0 {
			c.warnf(n, "shape mismatch: element %d of inline matrix has %d columns, want %d", bad+1, elems[bad].Cols, s.Cols)
		}
		n.SetShape(s)

	case *ast.ParenExpr:
		n.SetShape(n.Expr.Shape())

	case *ast.UnaryExpr:
		switch n.Op {
		case ast.Transpose:
			n.SetShape(n.Expr.Shape().Transpose())
		default:
			n.SetShape(n.Expr.Shape())
		}

	case *ast.BinaryExpr:
		c.binary(n)

	case *ast.CallExpr:
		c.call(n)
	}
	return node
}

func (c *checker) binary(n *ast.BinaryExpr) {
	l, r := n.LHS.Shape(), n.RHS.Shape()
	op := n.Op.String()
	var (
		s   shape.Shape
		err *shape.MismatchError
	)
	switch {
	case n.Op.IsLogical():
		s = shape.Scalar
	case l.IsUnknown() || r.IsUnknown():
		// The unknown operand has already been reported.
		s = shape.Unknown
	case n.Op == ast.Add || n.Op == ast.Sub:
		s, err = shape.Sum(op, l, r)
	case n.Op == ast.Mul:
		s, err = shape.Product(op, l, r)
	case n.Op == ast.Div:
		s, err = shape.Quotient(op, l, r)
	case n.Op == ast.ElemMul || n.Op == ast.ElemDiv:
		s, err = shape.Elementwise(op, l, r)
	case n.Op == ast.Pow || n.Op == ast.ElemPow:
		s = shape.Power(l, r)
	default:
		glog.Infof("unexpected operator %s", op)
		s = l
	}
	if err != nil {
		c.warnf(n, "%s", err)
	}
	n.SetShape(s)
}

// preserving builtins return the shape of their first argument.
var preserving = map[string]bool{
	"expm":  true,
	"min":   true,
	"max":   true,
	"cross": true,
	"abs":   true,
	"exp":   true,
	"sqrt":  true,
}

// dims returns the integer literal values of args.
func dims(args []ast.Node) ([]int, bool) {
	r := make([]int, 0, len(args))
	for _, a := range args {
		i, ok := a.(*ast.IntLit)
		if !ok || i.I < 1 {
			return nil, false
		}
		r = append(r, int(i.I))
	}
	return r, true
}

func (c *checker) call(n *ast.CallExpr) {
	switch {
	case n.Name == "eye":
		d, ok := dims(n.Args)
		if !ok || len(d) != 1 {
			c.errorf(n, "eye expects one integer literal argument")
			return
		}
		n.SetShape(shape.Matrix(d[0], d[0]))

	case n.Name == "zeros" || n.Name == "ones":
		d, ok := dims(n.Args)
		if !ok || len(d) < 1 || len(d) > 2 {
			c.errorf(n, "%s expects one or two integer literal arguments", n.Name)
			return
		}
		if len(d) == 1 {
			n.SetShape(shape.Matrix(d[0], d[0]))
		} else {
			n.SetShape(shape.Matrix(d[0], d[1]))
		}

	case preserving[n.Name]:
		if len(n.Args) == 0 {
			c.errorf(n, "%s expects an argument", n.Name)
			return
		}
		n.SetShape(n.Args[0].Shape())

	case n.Name == "norm":
		n.SetShape(shape.Scalar)

	case n.Name == "diag":
		if len(n.Args) == 1 && n.Args[0].Shape().IsUnknown() {
			n.SetShape(shape.Unknown)
			return
		}
		if len(n.Args) != 1 || !n.Args[0].Shape().IsVector() {
			c.errorf(n, "diag expects a single vector argument")
			return
		}
		rows := n.Args[0].Shape().Rows
		n.SetShape(shape.Matrix(rows, rows))

	default:
		s, ok := c.env.Lookup(n.Name)
		if !ok {
			c.warnf(n, "unknown shape for result of %s()", n.Name)
		}
		n.SetShape(s)
	}
}
