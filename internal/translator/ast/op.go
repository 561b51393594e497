// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package ast

// Op is the operator of a UnaryExpr or BinaryExpr.
type Op int

const (
	_ Op = iota

	// Unary.
	Neg
	Transpose

	// Arithmetic.
	Add
	Sub
	Mul
	Div
	Pow
	ElemMul
	ElemDiv
	ElemPow

	// Logical and relational; every one yields a truth value.
	And
	Or
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var opSpelling = map[Op]string{
	Neg:       "-",
	Transpose: "'",
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Div:       "/",
	Pow:       "^",
	ElemMul:   ".*",
	ElemDiv:   "./",
	ElemPow:   ".^",
	And:       "&&",
	Or:        "||",
	Eq:        "==",
	Ne:        "~=",
	Lt:        "<",
	Le:        "<=",
	Gt:        ">",
	Ge:        ">=",
}

// String returns the source spelling of the operator.
func (o Op) String() string {
	if s, ok := opSpelling[o]; ok {
		return s
	}
	return "?"
}

// IsLogical reports whether the operator yields a truth value.
func (o Op) IsLogical() bool {
	return o >= And && o <= Ge
}
