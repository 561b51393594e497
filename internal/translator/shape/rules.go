// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package shape

// The rules below never fail outright.  Each returns the shape that inference
// proceeds with, and a non-nil *MismatchError when the operands do not agree.

// Sum is the rule for addition and subtraction: the result takes the LHS shape.
func Sum(op string, l, r Shape) (Shape, *MismatchError) {
	if l != r {
		return l, &MismatchError{op, l, r}
	}
	return l, nil
}

// Product is the rule for matrix multiplication.  A scalar operand broadcasts
// to the shape of the other.
func Product(op string, l, r Shape) (Shape, *MismatchError) {
	switch {
	case l.IsScalar():
		return r, nil
	case r.IsScalar():
		return l, nil
	}
	res := Shape{l.Rows, r.Cols}
	if l.Cols != r.Rows {
		return res, &MismatchError{op, l, r}
	}
	return res, nil
}

// Quotient is the rule for division.  Division by a scalar keeps the LHS shape;
// otherwise a / b is treated as a * inv(b).
func Quotient(op string, l, r Shape) (Shape, *MismatchError) {
	if r.IsScalar() {
		return l, nil
	}
	res := Shape{l.Rows, r.Cols}
	if l.Cols != r.Rows {
		return res, &MismatchError{op, l, r}
	}
	return res, nil
}

// Elementwise is the rule for .* and ./ : scalars broadcast, other operands
// must agree exactly and the result takes the LHS shape.
func Elementwise(op string, l, r Shape) (Shape, *MismatchError) {
	switch {
	case l.IsScalar():
		return r, nil
	case r.IsScalar():
		return l, nil
	}
	return Sum(op, l, r)
}

// Power is the rule for ^ and .^ : exponentiation keeps the LHS shape.
func Power(l, r Shape) Shape {
	return l
}

// Concat is the rule for vertical concatenation of an inline matrix.  Rows are
// summed, and the column count is taken from the first element.  The index of
// the first element whose column count disagrees is returned, or -1.
func Concat(elems []Shape) (Shape, int) {
	if len(elems) == 0 {
		return Unknown, -1
	}
	res := Shape{0, elems[0].Cols}
	bad := -1
	for i, e := range elems {
		res.Rows += e.Rows
		if e.Cols != res.Cols && bad < 0 {
			bad = i
		}
	}
	return res, bad
}
