// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package ast holds the syntax tree of a translated function.  Expressions
// carry a slot for the shape inferred by the checker.
package ast

import (
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

type Node interface {
	Pos() *position.Position // Returns the position of the node from the original source
	Shape() shape.Shape      // Returns the inferred shape of the expression in this node
}

// Shaped is embedded in expression nodes whose shape is only known after inference.
type Shaped struct {
	Inferred shape.Shape
}

func (s *Shaped) Shape() shape.Shape {
	return s.Inferred
}

func (s *Shaped) SetShape(x shape.Shape) {
	s.Inferred = x
}

// Ref names a matrix, optionally qualified by the struct holding it.
type Ref struct {
	Struct string
	Name   string
}

// Qualified returns the shape environment key of the reference.
func (r Ref) Qualified() string {
	return shape.Qualify(r.Struct, r.Name)
}

// Range is an inclusive, 1-indexed index range.
type Range struct {
	Start int
	End   int
}

// Width returns the number of indices in the range.
func (r Range) Width() int {
	return r.End - r.Start + 1
}

// Function is the root of the tree.
type Function struct {
	P         position.Position
	Name      string
	ReturnObj string // name of the variable returned
	Params    []*Param
	Body      *StmtList

	ReturnShape shape.Shape // set by the checker
}

func (n *Function) Pos() *position.Position {
	return &n.P
}

func (n *Function) Shape() shape.Shape {
	return n.ReturnShape
}

// Param is a function parameter.  Persistent variables become parameters
// passed by reference.
type Param struct {
	Name  string
	ByRef bool

	Shape shape.Shape // set by the checker if Known
	Known bool
}

type StmtList struct {
	Children []Node
}

func (n *StmtList) Pos() *position.Position {
	return mergepositionlist(n.Children)
}

func (n *StmtList) Shape() shape.Shape {
	return shape.Unknown
}

// Assign is `Target = Value;`.
type Assign struct {
	P      position.Position
	Target Node
	Value  Node

	Declare bool // set by the checker when this assignment introduces Target
}

func (n *Assign) Pos() *position.Position {
	return &n.P
}

func (n *Assign) Shape() shape.Shape {
	return n.Value.Shape()
}

// PersistentDecl is `persistent a b c`.
type PersistentDecl struct {
	P     position.Position
	Names []string
}

func (n *PersistentDecl) Pos() *position.Position {
	return &n.P
}

func (n *PersistentDecl) Shape() shape.Shape {
	return shape.Unknown
}

// CondStmt is `if Cond ... end`.  There is no else branch.
type CondStmt struct {
	P    position.Position
	Cond Node
	Body *StmtList
}

func (n *CondStmt) Pos() *position.Position {
	return &n.P
}

func (n *CondStmt) Shape() shape.Shape {
	return shape.Unknown
}

type Comment struct {
	P    position.Position
	Text string
}

func (n *Comment) Pos() *position.Position {
	return &n.P
}

func (n *Comment) Shape() shape.Shape {
	return shape.Unknown
}

// Unparsed holds the raw text of a statement the parser could not interpret.
type Unparsed struct {
	P    position.Position
	Text string
}

func (n *Unparsed) Pos() *position.Position {
	return &n.P
}

func (n *Unparsed) Shape() shape.Shape {
	return shape.Unknown
}

type BlankLine struct {
	P position.Position
}

func (n *BlankLine) Pos() *position.Position {
	return &n.P
}

func (n *BlankLine) Shape() shape.Shape {
	return shape.Unknown
}

// Normalize normalizes the named vector in place.  It is only ever created by
// canonicalization of `x = x / norm(x)`.
type Normalize struct {
	P    position.Position
	Name string
}

func (n *Normalize) Pos() *position.Position {
	return &n.P
}

func (n *Normalize) Shape() shape.Shape {
	return shape.Unknown
}

type IntLit struct {
	P    position.Position
	Text string // source spelling
	I    int64
}

func (n *IntLit) Pos() *position.Position {
	return &n.P
}

func (n *IntLit) Shape() shape.Shape {
	return shape.Scalar
}

type FloatLit struct {
	P    position.Position
	Text string // source spelling
	F    float64
}

func (n *FloatLit) Pos() *position.Position {
	return &n.P
}

func (n *FloatLit) Shape() shape.Shape {
	return shape.Scalar
}

// IDTerm is a whole matrix referenced by name.
type IDTerm struct {
	P position.Position
	Ref
	Shaped
}

func (n *IDTerm) Pos() *position.Position {
	return &n.P
}

// SegmentExpr is `x(a:b)`.
type SegmentExpr struct {
	P position.Position
	Ref
	Range Range
	Shaped
}

func (n *SegmentExpr) Pos() *position.Position {
	return &n.P
}

// MultiSegmentExpr is `x([a:b c:d])`.
type MultiSegmentExpr struct {
	P position.Position
	Ref
	Ranges []Range
	Shaped
}

func (n *MultiSegmentExpr) Pos() *position.Position {
	return &n.P
}

// BlockExpr is `x(a:b, c:d)`.
type BlockExpr struct {
	P position.Position
	Ref
	Rows Range
	Cols Range
	Shaped
}

func (n *BlockExpr) Pos() *position.Position {
	return &n.P
}

// ElementExpr is `x(k)` once known to be an index rather than a call.
type ElementExpr struct {
	P position.Position
	Ref
	Index int64 // 1-indexed
	Shaped
}

func (n *ElementExpr) Pos() *position.Position {
	return &n.P
}

// InlineMatrix is `[a; b; c]`, the vertical concatenation of its elements.
type InlineMatrix struct {
	P     position.Position
	Elems []Node
	Shaped
}

func (n *InlineMatrix) Pos() *position.Position {
	return &n.P
}

type CallExpr struct {
	P    position.Position
	Name string
	Args []Node
	Shaped
}

func (n *CallExpr) Pos() *position.Position {
	return &n.P
}

type UnaryExpr struct {
	P    position.Position // position of the operator
	Op   Op
	Expr Node
	Shaped
}

func (n *UnaryExpr) Pos() *position.Position {
	return position.Merge(&n.P, n.Expr.Pos())
}

type ParenExpr struct {
	P    position.Position
	Expr Node
	Shaped
}

func (n *ParenExpr) Pos() *position.Position {
	return &n.P
}

type BinaryExpr struct {
	LHS, RHS Node
	Op       Op
	Shaped
}

func (n *BinaryExpr) Pos() *position.Position {
	return position.Merge(n.LHS.Pos(), n.RHS.Pos())
}

// mergepositionlist is a helper that merges the positions of all the nodes in a list.
func mergepositionlist(l []Node) *position.Position {
	switch len(l) {
	case 0:
		return nil
	case 1:
		if l[0] == nil {
			return nil
		}
		return l[0].Pos()
	default:
		return position.Merge(l[0].Pos(), mergepositionlist(l[1:]))
	}
}
