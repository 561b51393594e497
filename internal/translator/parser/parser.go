// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package parser turns program text into an ast.Function.  Statements the
// parser cannot interpret are kept verbatim as ast.Unparsed placeholders so
// that translation of the rest of the function can continue.
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/errors"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
)

// Parse reads the program from input and returns its syntax tree.  An error
// is returned only when no function could be recognised at all.
func Parse(name string, input io.Reader) (*ast.Function, error) {
	l, err := NewLexer(name, input)
	if err != nil {
		return nil, errors.Errorf("failed to read %s: %s", name, err)
	}
	return parse(l)
}

// ParseString parses the program text src.
func ParseString(name, src string) (*ast.Function, error) {
	return parse(NewLexerString(name, src))
}

func parse(l *Lexer) (*ast.Function, error) {
	p := &parser{name: l.name, src: l.input, toks: l.Tokens()}
	fn := p.function()
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return fn, nil
}

// syntaxError aborts parsing of the current statement.
type syntaxError struct {
	tok Token
	msg string
}

type parser struct {
	name string
	src  string
	toks []Token
	i    int

	orphanEnds int // `end' keywords owed to `if' headers that failed to parse

	errors errors.ErrorList // Fatal errors; only a malformed function header or trailer.
}

func (p *parser) tok() Token {
	return p.toks[p.i]
}

func (p *parser) peekKind(n int) Kind {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n].Kind
	}
	return EOF
}

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if t.Kind != EOF {
		p.i++
	}
	return t
}

func (p *parser) prev() Token {
	if p.i == 0 {
		return Token{Kind: NL}
	}
	return p.toks[p.i-1]
}

func (p *parser) fail(format string, args ...interface{}) {
	panic(syntaxError{p.tok(), fmt.Sprintf(format, args...)})
}

func (p *parser) expect(k Kind) Token {
	if p.tok().Kind != k {
		p.fail("expected %s, found %s", k, p.tok())
	}
	return p.advance()
}

func (p *parser) accept(k Kind) bool {
	if p.tok().Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *parser) skipNewlines() {
	for p.tok().Kind == NL || p.tok().Kind == SEMICOLON {
		p.advance()
	}
}

// try runs f, returning false and rewinding the cursor if f raised a syntax error.
func (p *parser) try(f func()) (ok bool) {
	start := p.i
	defer func() {
		if r := recover(); r != nil {
			if _, isSyntax := r.(syntaxError); !isSyntax {
				panic(r)
			}
			glog.V(2).Infof("rewinding to token %d: %v", start, r)
			p.i = start
			ok = false
		}
	}()
	f()
	return true
}

// function parses `function ret = name(a, b) ... end`.
func (p *parser) function() (fn *ast.Function) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(syntaxError)
			if !ok {
				panic(r)
			}
			p.errors.Add(&e.tok.Pos, e.msg)
			fn = nil
		}
	}()
	p.skipNewlines()
	// Leading comments are kept ahead of the function body.
	var leading []ast.Node
	for p.tok().Kind == COMMENT {
		t := p.advance()
		leading = append(leading, &ast.Comment{P: t.Pos, Text: t.Spelling})
		p.skipNewlines()
	}
	start := p.expect(FUNCTION)
	ret := p.expect(ID)
	p.expect(ASSIGN)
	name := p.expect(ID)
	fn = &ast.Function{P: start.Pos, Name: name.Spelling, ReturnObj: ret.Spelling}
	if p.accept(LPAREN) {
		if p.tok().Kind != RPAREN {
			for {
				fn.Params = append(fn.Params, &ast.Param{Name: p.expect(ID).Spelling})
				if !p.accept(COMMA) {
					break
				}
			}
		}
		p.expect(RPAREN)
	}
	body := p.statements()
	if p.tok().Kind != END {
		p.fail("expected `end' closing function %s, found %s", fn.Name, p.tok())
	}
	p.advance()
	for k := p.tok().Kind; k == NL || k == SEMICOLON || k == COMMENT; k = p.tok().Kind {
		if k == COMMENT {
			glog.V(1).Infof("%s: dropping comment after end of function", p.tok().Pos)
		}
		p.advance()
	}
	if p.tok().Kind != EOF {
		p.fail("unexpected %s after end of function %s", p.tok(), fn.Name)
	}
	body.Children = append(leading, body.Children...)
	fn.Body = body
	return fn
}

// statements parses statements up to, but not including, an `end' that
// closes the enclosing block, or EOF.
func (p *parser) statements() *ast.StmtList {
	l := &ast.StmtList{}
	for {
		switch p.tok().Kind {
		case EOF:
			return l
		case END:
			if p.orphanEnds == 0 {
				return l
			}
			p.orphanEnds--
			l.Children = append(l.Children, p.unparsed(p.i))
			continue
		}
		if s := p.statement(); s != nil {
			l.Children = append(l.Children, s)
		}
	}
}

// statement parses one statement, returning nil for line breaks that carry
// no statement.
func (p *parser) statement() (n ast.Node) {
	t := p.tok()
	switch t.Kind {
	case NL:
		p.advance()
		// A newline token is positioned on the line it starts, so the
		// preceding one marks the blank line.
		if prev := p.prev2(); prev.Kind == NL {
			return &ast.BlankLine{P: position.Position{Filename: prev.Pos.Filename, Line: prev.Pos.Line}}
		}
		return nil
	case SEMICOLON:
		p.advance()
		return nil
	case COMMENT:
		p.advance()
		return &ast.Comment{P: t.Pos, Text: t.Spelling}
	case PERSISTENT:
		p.advance()
		d := &ast.PersistentDecl{P: t.Pos}
		for p.tok().Kind == ID {
			d.Names = append(d.Names, p.advance().Spelling)
		}
		if !p.endOfStatement() {
			return p.unparsed(p.i - len(d.Names) - 1)
		}
		return d
	case IF:
		return p.conditional()
	}
	start := p.i
	if p.try(func() { n = p.assignment() }) {
		return n
	}
	return p.unparsed(start)
}

// prev2 returns the token before the previous one.
func (p *parser) prev2() Token {
	if p.i < 2 {
		return Token{Kind: NL}
	}
	return p.toks[p.i-2]
}

// endOfStatement consumes an optional terminator, reporting whether the
// statement ended properly.
func (p *parser) endOfStatement() bool {
	switch p.tok().Kind {
	case SEMICOLON, COMMA:
		p.advance()
		return true
	case NL, EOF, COMMENT:
		return true
	}
	return false
}

func (p *parser) conditional() ast.Node {
	start := p.i
	t := p.advance()
	var cond ast.Node
	ok := p.try(func() {
		cond = p.expr()
		if !p.accept(COMMA) && p.tok().Kind != NL && p.tok().Kind != COMMENT {
			p.fail("unexpected %s after condition", p.tok())
		}
	})
	if !ok {
		// The body is still parsed as statements; the `end' that closes it
		// is kept as unparsed text as well.
		p.orphanEnds++
		return p.unparsed(start)
	}
	body := p.statements()
	if p.tok().Kind != END {
		glog.V(1).Infof("%s: `if' without `end'", t.Pos)
		p.fail("expected `end' closing `if' at %s", t.Pos)
	}
	p.advance()
	p.accept(SEMICOLON)
	return &ast.CondStmt{P: t.Pos, Cond: cond, Body: body}
}

// assignment parses `target = expr;`.
func (p *parser) assignment() ast.Node {
	first := p.tok()
	target := p.primary()
	switch target.(type) {
	case *ast.IDTerm, *ast.SegmentExpr, *ast.BlockExpr, *ast.ElementExpr, *ast.CallExpr:
	default:
		p.fail("can't assign to %T", target)
	}
	p.expect(ASSIGN)
	value := p.expr()
	last := p.prev()
	if !p.endOfStatement() {
		p.fail("unexpected %s at end of statement", p.tok())
	}
	return &ast.Assign{P: *position.Merge(&first.Pos, &last.Pos), Target: target, Value: value}
}

// unparsed skips the remainder of a statement that began at token start, and
// returns its raw text as an unparsed placeholder.
func (p *parser) unparsed(start int) ast.Node {
	p.i = start
	first := p.tok()
	end := first.End
	for {
		t := p.tok()
		if t.Kind == EOF || t.Kind == NL || t.Kind == COMMENT {
			break
		}
		p.advance()
		if t.Kind == SEMICOLON {
			break
		}
		end = t.End
	}
	text := strings.TrimSpace(p.src[first.Offset:end])
	glog.V(1).Infof("%s: could not parse %q", first.Pos, text)
	return &ast.Unparsed{P: first.Pos, Text: text}
}

// Expression grammar, loosest binding first.

func (p *parser) expr() ast.Node {
	return p.orExpr()
}

func (p *parser) orExpr() ast.Node {
	n := p.andExpr()
	for p.tok().Kind == OR {
		p.advance()
		n = &ast.BinaryExpr{LHS: n, RHS: p.andExpr(), Op: ast.Or}
	}
	return n
}

func (p *parser) andExpr() ast.Node {
	n := p.cmpExpr()
	for p.tok().Kind == AND {
		p.advance()
		n = &ast.BinaryExpr{LHS: n, RHS: p.cmpExpr(), Op: ast.And}
	}
	return n
}

var cmpOps = map[Kind]ast.Op{EQ: ast.Eq, NE: ast.Ne, LT: ast.Lt, LE: ast.Le, GT: ast.Gt, GE: ast.Ge}

func (p *parser) cmpExpr() ast.Node {
	n := p.addExpr()
	for {
		op, ok := cmpOps[p.tok().Kind]
		if !ok {
			return n
		}
		p.advance()
		n = &ast.BinaryExpr{LHS: n, RHS: p.addExpr(), Op: op}
	}
}

var addOps = map[Kind]ast.Op{PLUS: ast.Add, MINUS: ast.Sub}

func (p *parser) addExpr() ast.Node {
	n := p.mulExpr()
	for {
		op, ok := addOps[p.tok().Kind]
		if !ok {
			return n
		}
		p.advance()
		n = &ast.BinaryExpr{LHS: n, RHS: p.mulExpr(), Op: op}
	}
}

var mulOps = map[Kind]ast.Op{MUL: ast.Mul, DIV: ast.Div, ELEMMUL: ast.ElemMul, ELEMDIV: ast.ElemDiv}

func (p *parser) mulExpr() ast.Node {
	n := p.unaryExpr()
	for {
		op, ok := mulOps[p.tok().Kind]
		if !ok {
			return n
		}
		p.advance()
		n = &ast.BinaryExpr{LHS: n, RHS: p.unaryExpr(), Op: op}
	}
}

func (p *parser) unaryExpr() ast.Node {
	switch t := p.tok(); t.Kind {
	case MINUS:
		p.advance()
		return &ast.UnaryExpr{P: t.Pos, Op: ast.Neg, Expr: p.unaryExpr()}
	case PLUS:
		p.advance()
		return p.unaryExpr()
	}
	return p.powExpr()
}

var powOps = map[Kind]ast.Op{POW: ast.Pow, ELEMPOW: ast.ElemPow}

func (p *parser) powExpr() ast.Node {
	n := p.postfixExpr()
	for {
		op, ok := powOps[p.tok().Kind]
		if !ok {
			return n
		}
		p.advance()
		var rhs ast.Node
		if t := p.tok(); t.Kind == MINUS {
			p.advance()
			rhs = &ast.UnaryExpr{P: t.Pos, Op: ast.Neg, Expr: p.postfixExpr()}
		} else {
			rhs = p.postfixExpr()
		}
		n = &ast.BinaryExpr{LHS: n, RHS: rhs, Op: op}
	}
}

func (p *parser) postfixExpr() ast.Node {
	n := p.primary()
	for p.tok().Kind == TRANSPOSE {
		t := p.advance()
		n = &ast.UnaryExpr{P: t.Pos, Op: ast.Transpose, Expr: n}
	}
	return n
}

func (p *parser) primary() ast.Node {
	t := p.tok()
	switch t.Kind {
	case INTLITERAL:
		p.advance()
		i, err := strconv.ParseInt(t.Spelling, 10, 64)
		if err != nil {
			p.fail("bad integer %q: %s", t.Spelling, err)
		}
		return &ast.IntLit{P: t.Pos, Text: t.Spelling, I: i}
	case FLOATLITERAL:
		p.advance()
		f, err := strconv.ParseFloat(t.Spelling, 64)
		if err != nil {
			p.fail("bad number %q: %s", t.Spelling, err)
		}
		return &ast.FloatLit{P: t.Pos, Text: t.Spelling, F: f}
	case LPAREN:
		p.advance()
		e := p.expr()
		p.expect(RPAREN)
		return &ast.ParenExpr{P: t.Pos, Expr: e}
	case LSQUARE:
		p.advance()
		m := &ast.InlineMatrix{P: t.Pos}
		if p.tok().Kind != RSQUARE {
			for {
				m.Elems = append(m.Elems, p.expr())
				if !p.accept(SEMICOLON) {
					break
				}
			}
		}
		p.expect(RSQUARE)
		return m
	case ID:
		return p.reference()
	}
	p.fail("unexpected %s", t)
	return nil
}

// reference parses a name, optionally struct qualified, and any access or
// call suffix.
func (p *parser) reference() ast.Node {
	t := p.advance()
	ref := ast.Ref{Name: t.Spelling}
	if p.tok().Kind == DOT && p.peekKind(1) == ID {
		p.advance()
		ref = ast.Ref{Struct: t.Spelling, Name: p.advance().Spelling}
	}
	if p.tok().Kind != LPAREN {
		return &ast.IDTerm{P: t.Pos, Ref: ref}
	}

	var n ast.Node
	if p.try(func() { n = p.rangeAccess(t, ref) }) {
		return n
	}
	p.advance() // (
	var args []ast.Node
	if p.tok().Kind != RPAREN {
		for {
			args = append(args, p.expr())
			if !p.accept(COMMA) {
				break
			}
		}
	}
	p.expect(RPAREN)
	if ref.Struct != "" {
		// A struct field is never a function, so a single integer is an index.
		if len(args) == 1 {
			if i, ok := args[0].(*ast.IntLit); ok {
				return &ast.ElementExpr{P: t.Pos, Ref: ref, Index: i.I}
			}
		}
		p.fail("unsupported access to %s", ref.Qualified())
	}
	return &ast.CallExpr{P: t.Pos, Name: ref.Name, Args: args}
}

// rangeAccess parses `(a:b)`, `(a:b, c:d)` or `([a:b c:d])`.
func (p *parser) rangeAccess(t Token, ref ast.Ref) ast.Node {
	p.expect(LPAREN)
	if p.accept(LSQUARE) {
		m := &ast.MultiSegmentExpr{P: t.Pos, Ref: ref}
		for p.tok().Kind != RSQUARE {
			m.Ranges = append(m.Ranges, p.indexRange())
			p.accept(COMMA)
		}
		p.expect(RSQUARE)
		p.expect(RPAREN)
		if len(m.Ranges) == 0 {
			p.fail("empty index list")
		}
		return m
	}
	rows := p.indexRange()
	if p.accept(COMMA) {
		cols := p.indexRange()
		p.expect(RPAREN)
		return &ast.BlockExpr{P: t.Pos, Ref: ref, Rows: rows, Cols: cols}
	}
	p.expect(RPAREN)
	return &ast.SegmentExpr{P: t.Pos, Ref: ref, Range: rows}
}

func (p *parser) indexRange() ast.Range {
	start := p.expect(INTLITERAL)
	p.expect(COLON)
	end := p.expect(INTLITERAL)
	r := ast.Range{}
	var err error
	if r.Start, err = strconv.Atoi(start.Spelling); err != nil {
		p.fail("bad index %q", start.Spelling)
	}
	if r.End, err = strconv.Atoi(end.Spelling); err != nil {
		p.fail("bad index %q", end.Spelling)
	}
	if r.Start < 1 || r.End < r.Start {
		p.fail("bad range %d:%d", r.Start, r.End)
	}
	return r
}
