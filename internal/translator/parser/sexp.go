// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"fmt"
	"strings"

	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
)

// Sexp is for converting syntax trees into an s-expression for printing.
type Sexp struct {
	output strings.Builder // Accumulator for the result

	EmitShapes bool

	col  int // column to indent current line to
	line string
}

func (s *Sexp) indent() {
	s.col += 2
}

func (s *Sexp) outdent() {
	s.col -= 2
}

func (s *Sexp) emit(str string) {
	s.line += str
}

func (s *Sexp) newline() {
	if s.line != "" {
		s.output.WriteString(strings.Repeat(" ", s.col))
		s.output.WriteString(s.line)
	}
	s.output.WriteString("\n")
	s.line = ""
}

func ranges(rs ...ast.Range) string {
	r := make([]string, 0, len(rs))
	for _, x := range rs {
		r = append(r, fmt.Sprintf("%d:%d", x.Start, x.End))
	}
	return strings.Join(r, " ")
}

// VisitBefore implements the ast.Visitor interface.
func (s *Sexp) VisitBefore(n ast.Node) (ast.Visitor, ast.Node) {
	s.emit(fmt.Sprintf("( ;;%T ", n))
	if s.EmitShapes {
		s.emit(fmt.Sprintf("<%s> ", n.Shape()))
	}
	s.emit(fmt.Sprintf("@ %s", n.Pos()))
	s.newline()
	s.indent()
	switch v := n.(type) {
	case *ast.Function:
		s.emit(fmt.Sprintf("%q returns %q", v.Name, v.ReturnObj))
		for _, p := range v.Params {
			if p.ByRef {
				s.emit(" &" + p.Name)
			} else {
				s.emit(" " + p.Name)
			}
		}

	case *ast.Assign:
		if v.Declare {
			s.emit("declare")
		}

	case *ast.PersistentDecl:
		s.emit("persistent " + strings.Join(v.Names, " "))

	case *ast.Comment:
		s.emit(fmt.Sprintf("comment %q", v.Text))

	case *ast.Unparsed:
		s.emit(fmt.Sprintf("unparsed %q", v.Text))

	case *ast.Normalize:
		s.emit("normalize " + v.Name)

	case *ast.IntLit:
		s.emit(v.Text)

	case *ast.FloatLit:
		s.emit(v.Text)

	case *ast.IDTerm:
		s.emit(fmt.Sprintf("%q", v.Qualified()))

	case *ast.SegmentExpr:
		s.emit(fmt.Sprintf("%q %s", v.Qualified(), ranges(v.Range)))

	case *ast.MultiSegmentExpr:
		s.emit(fmt.Sprintf("%q [%s]", v.Qualified(), ranges(v.Ranges...)))

	case *ast.BlockExpr:
		s.emit(fmt.Sprintf("%q %s, %s", v.Qualified(), ranges(v.Rows), ranges(v.Cols)))

	case *ast.ElementExpr:
		s.emit(fmt.Sprintf("%q %d", v.Qualified(), v.Index))

	case *ast.CallExpr:
		s.emit(fmt.Sprintf("%q", v.Name))

	case *ast.UnaryExpr:
		s.emit(v.Op.String())

	case *ast.BinaryExpr:
		s.emit(v.Op.String())

	case *ast.StmtList, *ast.CondStmt, *ast.BlankLine, *ast.InlineMatrix, *ast.ParenExpr: // normal walk

	default:
		panic(fmt.Sprintf("sexp found undefined type %T", n))
	}
	if s.line != "" {
		s.newline()
	}
	return s, n
}

// VisitAfter implements the ast.Visitor interface.
func (s *Sexp) VisitAfter(node ast.Node) ast.Node {
	s.outdent()
	s.emit(")")
	s.newline()
	return node
}

// Dump begins the dumping of the syntax tree, returning the s-expression as a single string
func (s *Sexp) Dump(n ast.Node) string {
	s.output.Reset()
	ast.Walk(s, n)
	return s.output.String()
}
