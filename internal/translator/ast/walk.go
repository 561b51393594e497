// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package ast

import (
	"fmt"

	"github.com/golang/glog"
)

// Visitor VisitBefore method is invoked for each node encountered by Walk.
// If the result Visitor v is not nil, Walk visits each of the children of that
// node with v.  VisitAfter is called on n at the end.
type Visitor interface {
	VisitBefore(n Node) (Visitor, Node)
	VisitAfter(n Node) Node
}

// convenience function.
func walknodelist(v Visitor, list []Node) []Node {
	r := make([]Node, 0, len(list))
	for _, x := range list {
		if y := Walk(v, x); y != nil {
			r = append(r, y)
		}
	}
	return r
}

// Walk traverses (walks) an AST node with the provided Visitor v.  A node
// replaced by nil inside a list is removed from the list.
func Walk(v Visitor, node Node) Node {
	glog.V(2).Infof("About to VisitBefore node at %s", node.Pos())
	// Returning nil from VisitBefore signals to Walk that the Visitor has
	// handled the children of this node.  VisitAfter will not be called.
	if v, node = v.VisitBefore(node); v == nil {
		return node
	}

	switch n := node.(type) {
	case *Function:
		n.Body = walkstmtlist(v, n.Body)

	case *StmtList:
		n.Children = walknodelist(v, n.Children)

	case *CondStmt:
		n.Cond = Walk(v, n.Cond)
		n.Body = walkstmtlist(v, n.Body)

	case *Assign:
		n.Target = Walk(v, n.Target)
		n.Value = Walk(v, n.Value)

	case *InlineMatrix:
		n.Elems = walknodelist(v, n.Elems)

	case *CallExpr:
		n.Args = walknodelist(v, n.Args)

	case *UnaryExpr:
		n.Expr = Walk(v, n.Expr)

	case *ParenExpr:
		n.Expr = Walk(v, n.Expr)

	case *BinaryExpr:
		n.LHS = Walk(v, n.LHS)
		n.RHS = Walk(v, n.RHS)

	case *PersistentDecl, *Comment, *Unparsed, *BlankLine, *Normalize, *IntLit, *FloatLit,
		*IDTerm, *SegmentExpr, *MultiSegmentExpr, *BlockExpr, *ElementExpr:
		// These nodes are terminals, thus have no children to walk.

	default:
		panic(fmt.Sprintf("Walk: unexpected node type %T: %v", n, n))
	}

	glog.V(2).Infof("About to VisitAfter node at %s", node.Pos())
	node = v.VisitAfter(node)
	return node
}

func walkstmtlist(v Visitor, l *StmtList) *StmtList {
	if l == nil {
		return nil
	}
	r, ok := Walk(v, l).(*StmtList)
	if !ok {
		panic(fmt.Sprintf("Walk: statement list replaced by %T", r))
	}
	return r
}
