// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package ast

import "fmt"

// Copy returns a deep copy of the tree rooted at n.  The copy shares no
// mutable state with n.
func Copy(n Node) Node {
	switch v := n.(type) {
	case nil:
		return nil
	case *Function:
		r := *v
		r.Params = make([]*Param, 0, len(v.Params))
		for _, p := range v.Params {
			c := *p
			r.Params = append(r.Params, &c)
		}
		if v.Body != nil {
			r.Body = Copy(v.Body).(*StmtList)
		}
		return &r
	case *StmtList:
		return &StmtList{Children: copylist(v.Children)}
	case *Assign:
		r := *v
		r.Target = Copy(v.Target)
		r.Value = Copy(v.Value)
		return &r
	case *PersistentDecl:
		r := *v
		r.Names = append([]string(nil), v.Names...)
		return &r
	case *CondStmt:
		r := *v
		r.Cond = Copy(v.Cond)
		if v.Body != nil {
			r.Body = Copy(v.Body).(*StmtList)
		}
		return &r
	case *Comment:
		r := *v
		return &r
	case *Unparsed:
		r := *v
		return &r
	case *BlankLine:
		r := *v
		return &r
	case *Normalize:
		r := *v
		return &r
	case *IntLit:
		r := *v
		return &r
	case *FloatLit:
		r := *v
		return &r
	case *IDTerm:
		r := *v
		return &r
	case *SegmentExpr:
		r := *v
		return &r
	case *MultiSegmentExpr:
		r := *v
		r.Ranges = append([]Range(nil), v.Ranges...)
		return &r
	case *BlockExpr:
		r := *v
		return &r
	case *ElementExpr:
		r := *v
		return &r
	case *InlineMatrix:
		r := *v
		r.Elems = copylist(v.Elems)
		return &r
	case *CallExpr:
		r := *v
		r.Args = copylist(v.Args)
		return &r
	case *UnaryExpr:
		r := *v
		r.Expr = Copy(v.Expr)
		return &r
	case *ParenExpr:
		r := *v
		r.Expr = Copy(v.Expr)
		return &r
	case *BinaryExpr:
		r := *v
		r.LHS = Copy(v.LHS)
		r.RHS = Copy(v.RHS)
		return &r
	default:
		panic(fmt.Sprintf("Copy: unexpected node type %T", n))
	}
}

func copylist(l []Node) []Node {
	if l == nil {
		return nil
	}
	r := make([]Node, 0, len(l))
	for _, n := range l {
		r = append(r, Copy(n))
	}
	return r
}
