// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"fmt"

	"github.com/ml2eigen/ml2eigen/internal/translator/position"
)

// Kind enumerates the types of lexical tokens in a program.
type Kind int

const (
	INVALID Kind = iota // An invalid token; Spelling holds the reason.
	EOF
	NL
	COMMENT
	ID
	INTLITERAL
	FLOATLITERAL

	// Keywords.
	FUNCTION
	IF
	END
	PERSISTENT

	// Punctuation.
	LPAREN
	RPAREN
	LSQUARE
	RSQUARE
	COMMA
	SEMICOLON
	COLON
	ASSIGN
	DOT
	TRANSPOSE

	// Operators.
	PLUS
	MINUS
	MUL
	DIV
	POW
	ELEMMUL
	ELEMDIV
	ELEMPOW
	AND
	OR
	EQ
	NE
	LT
	LE
	GT
	GE
	NOT
)

var kindNames = [...]string{
	INVALID:      "INVALID",
	EOF:          "EOF",
	NL:           "NL",
	COMMENT:      "COMMENT",
	ID:           "ID",
	INTLITERAL:   "INTLITERAL",
	FLOATLITERAL: "FLOATLITERAL",
	FUNCTION:     "FUNCTION",
	IF:           "IF",
	END:          "END",
	PERSISTENT:   "PERSISTENT",
	LPAREN:       "LPAREN",
	RPAREN:       "RPAREN",
	LSQUARE:      "LSQUARE",
	RSQUARE:      "RSQUARE",
	COMMA:        "COMMA",
	SEMICOLON:    "SEMICOLON",
	COLON:        "COLON",
	ASSIGN:       "ASSIGN",
	DOT:          "DOT",
	TRANSPOSE:    "TRANSPOSE",
	PLUS:         "PLUS",
	MINUS:        "MINUS",
	MUL:          "MUL",
	DIV:          "DIV",
	POW:          "POW",
	ELEMMUL:      "ELEMMUL",
	ELEMDIV:      "ELEMDIV",
	ELEMPOW:      "ELEMPOW",
	AND:          "AND",
	OR:           "OR",
	EQ:           "EQ",
	NE:           "NE",
	LT:           "LT",
	LE:           "LE",
	GT:           "GT",
	GE:           "GE",
	NOT:          "NOT",
}

// String returns a readable name of the token Kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token describes a lexed Token from the input, containing its type, the
// original text of the Token, and its position in the input.
type Token struct {
	Kind     Kind
	Spelling string
	Pos      position.Position

	// Byte offsets of the token in the input, used to recover the raw text
	// of statements that fail to parse.
	Offset int
	End    int
}

// String returns a printable form of a Token.
func (t Token) String() string {
	return fmt.Sprintf("%s(%q,%s)", t.Kind.String(), t.Spelling, t.Pos)
}
