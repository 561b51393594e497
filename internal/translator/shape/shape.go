// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package shape describes the dimensions of matrix valued expressions, and the
// rules by which linear algebra composes them.
package shape

import (
	"errors"
	"fmt"
	"strconv"
)

// Shape is the (rows, cols) dimension pair of an expression.  Shapes are
// values; two shapes are the same shape when their fields are equal.
type Shape struct {
	Rows int
	Cols int
}

var (
	// Scalar is the shape of a number, and of every truth value.
	Scalar = Shape{1, 1}
	// Unknown is the fallback shape used when inference could not determine one.
	Unknown = Shape{0, 0}
)

// Vector returns the shape of a column vector of length n.
func Vector(n int) Shape {
	return Shape{n, 1}
}

// Matrix returns the shape of a rows by cols matrix.
func Matrix(rows, cols int) Shape {
	return Shape{rows, cols}
}

// IsScalar reports whether s is (1,1).
func (s Shape) IsScalar() bool {
	return s == Scalar
}

// IsVector reports whether s has exactly one column.
func (s Shape) IsVector() bool {
	return s.Cols == 1
}

// IsUnknown reports whether s is the fallback shape.
func (s Shape) IsUnknown() bool {
	return s == Unknown
}

// Transpose swaps rows and columns.
func (s Shape) Transpose() Shape {
	return Shape{s.Cols, s.Rows}
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d,%d)", s.Rows, s.Cols)
}

// TypeName derives the name of the Eigen type holding a value of shape s.
func TypeName(s Shape) string {
	switch {
	case s == Scalar:
		return "float"
	case s.Cols == 1:
		return "Vector" + strconv.Itoa(s.Rows)
	default:
		return "Matrix" + strconv.Itoa(s.Rows) + "_" + strconv.Itoa(s.Cols)
	}
}

var (
	// ErrShapeMismatch is the cause of every MismatchError.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// MismatchError describes two operand shapes that do not compose under an
// operator.  It is advisory: the rule that returns it also returns the
// fallback shape that inference continues with.
type MismatchError struct {
	Op    string
	Left  Shape
	Right Shape
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: can't apply %s to LHS of shape %s with RHS of shape %s", ErrShapeMismatch, e.Op, e.Left, e.Right)
}

func (e *MismatchError) Unwrap() error {
	return ErrShapeMismatch
}
