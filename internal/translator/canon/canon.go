// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package canon rewrites a parsed function into the canonical form expected
// by the checker and code generator.
package canon

import (
	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/errors"
)

// PiSymbol is the target spelling of the constant pi.
const PiSymbol = "M_PI"

// constructors take integer literal arguments that are dimensions, not indices.
var constructors = map[string]bool{
	"eye":   true,
	"zeros": true,
	"ones":  true,
	"diag":  true,
}

// Canonicalize returns a canonical copy of fn.  The input tree is not
// modified.  Canonicalize is idempotent.
func Canonicalize(fn *ast.Function) (*ast.Function, error) {
	if fn == nil {
		return nil, errors.Errorf("no function to canonicalize")
	}
	c := &canonicaliser{}
	r := ast.Walk(c, ast.Copy(fn)).(*ast.Function)
	for _, name := range c.persistent {
		addByRef(r, name)
	}
	return r, nil
}

// addByRef makes name a by-reference parameter of fn.
func addByRef(fn *ast.Function, name string) {
	for _, p := range fn.Params {
		if p.Name == name {
			p.ByRef = true
			return
		}
	}
	fn.Params = append(fn.Params, &ast.Param{Name: name, ByRef: true})
}

type canonicaliser struct {
	persistent []string // hoisted persistent names, in declaration order
}

func (c *canonicaliser) VisitBefore(node ast.Node) (ast.Visitor, ast.Node) {
	return c, node
}

func (c *canonicaliser) VisitAfter(node ast.Node) ast.Node {
	switch n := node.(type) {
	case *ast.MultiSegmentExpr:
		m := &ast.InlineMatrix{P: n.P}
		for _, r := range n.Ranges {
			m.Elems = append(m.Elems, &ast.SegmentExpr{P: n.P, Ref: n.Ref, Range: r})
		}
		glog.V(2).Infof("%s: split %s into %d segments", n.Pos(), n.Qualified(), len(n.Ranges))
		return m

	case *ast.IDTerm:
		if n.Struct == "" && n.Name == "pi" {
			n.Name = PiSymbol
		}

	case *ast.CallExpr:
		if len(n.Args) != 1 || constructors[n.Name] {
			return n
		}
		if i, ok := n.Args[0].(*ast.IntLit); ok {
			return &ast.ElementExpr{P: n.P, Ref: ast.Ref{Name: n.Name}, Index: i.I}
		}

	case *ast.Assign:
		if name, ok := normalization(n); ok {
			return &ast.Normalize{P: n.P, Name: name}
		}

	case *ast.PersistentDecl:
		c.persistent = append(c.persistent, n.Names...)
		return nil
	}
	return node
}

// normalization matches `x = x / norm(x)` on a single plain name.
func normalization(n *ast.Assign) (string, bool) {
	target, ok := n.Target.(*ast.IDTerm)
	if !ok || target.Struct != "" {
		return "", false
	}
	div, ok := n.Value.(*ast.BinaryExpr)
	if !ok || div.Op != ast.Div {
		return "", false
	}
	if !isName(div.LHS, target.Name) {
		return "", false
	}
	call, ok := div.RHS.(*ast.CallExpr)
	if !ok || call.Name != "norm" || len(call.Args) != 1 || !isName(call.Args[0], target.Name) {
		return "", false
	}
	return target.Name, true
}

func isName(n ast.Node, name string) bool {
	id, ok := n.(*ast.IDTerm)
	return ok && id.Struct == "" && id.Name == name
}
