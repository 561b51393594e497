// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

package parser

import (
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator/position"
)

// List of keywords.  Keep this list sorted!
var keywords = map[string]Kind{
	"end":        END,
	"function":   FUNCTION,
	"if":         IF,
	"persistent": PERSISTENT,
}

// A stateFn represents each state the scanner can be in.
type stateFn func(*Lexer) stateFn

// A Lexer holds the state of the scanner.
type Lexer struct {
	name  string  // Name of program.
	input string  // Source program
	state stateFn // Current state function of the lexer.

	// The "read cursor" in the input.
	offset int  // Byte offset of the next rune.
	rune   rune // The current rune.
	width  int  // Width in bytes.
	line   int  // The line position of the current rune.
	col    int  // The column position of the current rune.

	// The currently being lexed token.
	start    int             // Starting byte offset of the current token.
	startcol int             // Starting column of the current token.
	text     strings.Builder // the text of the current token

	tokens chan Token // Output channel for tokens emitted.
}

// NewLexer creates a new scanner type that reads the input provided.
func NewLexer(name string, input io.Reader) (*Lexer, error) {
	b, err := ioutil.ReadAll(input)
	if err != nil {
		return nil, err
	}
	return NewLexerString(name, string(b)), nil
}

// NewLexerString creates a new scanner over the program text.
func NewLexerString(name, input string) *Lexer {
	return &Lexer{
		name:   name,
		input:  input,
		state:  lexProg,
		tokens: make(chan Token, 2),
	}
}

// NextToken returns the next token in the input.  When no token is available
// to be returned it executes the next action in the state machine.
func (l *Lexer) NextToken() Token {
	for {
		select {
		case tok := <-l.tokens:
			return tok
		default:
			if l.state == nil {
				return Token{Kind: EOF, Pos: l.pos(), Offset: len(l.input), End: len(l.input)}
			}
			l.state = l.state(l)
		}
	}
}

// Tokens lexes the whole input, up to and including the EOF token.
func (l *Lexer) Tokens() []Token {
	var r []Token
	for {
		t := l.NextToken()
		r = append(r, t)
		if t.Kind == EOF {
			return r
		}
	}
}

func (l *Lexer) pos() position.Position {
	return position.Position{Filename: l.name, Line: l.line, Startcol: l.startcol, Endcol: l.col - 1}
}

// emit passes a token to the client.
func (l *Lexer) emit(kind Kind) {
	l.emitSpelling(kind, l.text.String())
}

func (l *Lexer) emitSpelling(kind Kind, spelling string) {
	pos := l.pos()
	glog.V(2).Infof("Emitting %v spelled %q at %v", kind, spelling, pos)
	l.tokens <- Token{Kind: kind, Spelling: spelling, Pos: pos, Offset: l.start, End: l.offset}
	// Reset the current token
	l.text.Reset()
	l.startcol = l.col
	l.start = l.offset
}

// Internal end of file value.
const eof rune = -1

// next returns the next rune in the input.
func (l *Lexer) next() rune {
	if l.offset >= len(l.input) {
		l.width = 0
		l.rune = eof
		return l.rune
	}
	l.rune, l.width = utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += l.width
	return l.rune
}

// peek returns the rune after the current one without consuming it.
func (l *Lexer) peek() rune {
	if l.offset >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

// backup indicates that we haven't yet dealt with the current rune. Use when
// terminating tokens on unknown runes.
func (l *Lexer) backup() {
	l.offset -= l.width
	l.width = 0
}

// stepCursor moves the read cursor.
func (l *Lexer) stepCursor() {
	if l.rune == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// accept accepts the current rune and its position into the current token.
func (l *Lexer) accept() {
	l.text.WriteRune(l.rune)
	l.stepCursor()
}

// skip does not accept the current rune into the current token's text, but
// does accept its position into the token. Use only at the start or end of a
// token.
func (l *Lexer) skip() {
	l.stepCursor()
}

// ignore skips over the current rune, removing it from the text of the token,
// and resetting the start position of the current token. Use only between
// tokens.
func (l *Lexer) ignore() {
	l.stepCursor()
	l.startcol = l.col
	l.start = l.offset
}

// errorf returns an error token and resets the scanner.
func (l *Lexer) errorf(format string, args ...interface{}) stateFn {
	l.emitSpelling(INVALID, fmt.Sprintf(format, args...))
	return lexProg
}

// State functions.

// lexProg starts lexing a program.
func lexProg(l *Lexer) stateFn {
	switch r := l.next(); {
	case r == '\n':
		l.accept()
		l.emit(NL)
	case r == '%':
		return lexComment
	case isSpace(r):
		l.ignore()
	case r == '(':
		l.accept()
		l.emit(LPAREN)
	case r == ')':
		l.accept()
		l.emit(RPAREN)
	case r == '[':
		l.accept()
		l.emit(LSQUARE)
	case r == ']':
		l.accept()
		l.emit(RSQUARE)
	case r == ',':
		l.accept()
		l.emit(COMMA)
	case r == ';':
		l.accept()
		l.emit(SEMICOLON)
	case r == ':':
		l.accept()
		l.emit(COLON)
	case r == '\'':
		l.accept()
		l.emit(TRANSPOSE)
	case r == '+':
		l.accept()
		l.emit(PLUS)
	case r == '-':
		l.accept()
		l.emit(MINUS)
	case r == '*':
		l.accept()
		l.emit(MUL)
	case r == '/':
		l.accept()
		l.emit(DIV)
	case r == '^':
		l.accept()
		l.emit(POW)
	case r == '=':
		l.accept()
		switch l.next() {
		case '=':
			l.accept()
			l.emit(EQ)
		default:
			l.backup()
			l.emit(ASSIGN)
		}
	case r == '~':
		l.accept()
		switch l.next() {
		case '=':
			l.accept()
			l.emit(NE)
		default:
			l.backup()
			l.emit(NOT)
		}
	case r == '<':
		l.accept()
		switch l.next() {
		case '=':
			l.accept()
			l.emit(LE)
		default:
			l.backup()
			l.emit(LT)
		}
	case r == '>':
		l.accept()
		switch l.next() {
		case '=':
			l.accept()
			l.emit(GE)
		default:
			l.backup()
			l.emit(GT)
		}
	case r == '&':
		l.accept()
		if l.next() != '&' {
			l.backup()
			return l.errorf("Unexpected input: %q; only `&&' is supported", r)
		}
		l.accept()
		l.emit(AND)
	case r == '|':
		l.accept()
		if l.next() != '|' {
			l.backup()
			return l.errorf("Unexpected input: %q; only `||' is supported", r)
		}
		l.accept()
		l.emit(OR)
	case r == '.':
		switch l.peek() {
		case '*':
			l.accept()
			l.next()
			l.accept()
			l.emit(ELEMMUL)
		case '/':
			l.accept()
			l.next()
			l.accept()
			l.emit(ELEMDIV)
		case '^':
			l.accept()
			l.next()
			l.accept()
			l.emit(ELEMPOW)
		case '\'':
			l.accept()
			l.next()
			l.accept()
			l.emit(TRANSPOSE)
		default:
			if isDigit(l.peek()) {
				l.backup()
				return lexNumeric
			}
			l.accept()
			l.emit(DOT)
		}
	case isDigit(r):
		l.backup()
		return lexNumeric
	case isAlpha(r):
		return lexIdentifier
	case r == eof:
		l.skip()
		l.emit(EOF)
		// Stop the machine, we're done.
		return nil
	default:
		l.accept()
		return l.errorf("Unexpected input: %q", r)
	}
	return lexProg
}

// Lex a comment.  The text of the comment excludes the leading `%' markers
// and any space after them.
func lexComment(l *Lexer) stateFn {
	l.skip()
	for l.peek() == '%' {
		l.next()
		l.skip()
	}
	for l.peek() == ' ' || l.peek() == '\t' {
		l.next()
		l.skip()
	}
Loop:
	for {
		switch r := l.next(); r {
		case '\n', eof:
			l.backup()
			break Loop
		case '\r':
			l.skip()
		default:
			l.accept()
		}
	}
	l.emit(COMMENT)
	return lexProg
}

// Lex a numerical constant.
func lexNumeric(l *Lexer) stateFn {
	float := false
	r := l.next()
	for isDigit(r) {
		l.accept()
		r = l.next()
	}
	if r == '.' {
		switch l.peek() {
		case '*', '/', '^', '\'':
			// An elementwise operator or transpose follows an integer.
			l.backup()
			l.emit(INTLITERAL)
			return lexProg
		}
		float = true
		l.accept()
		r = l.next()
		for isDigit(r) {
			l.accept()
			r = l.next()
		}
	}
	if (r == 'e' || r == 'E') && (isDigit(l.peek()) || l.peek() == '+' || l.peek() == '-') {
		float = true
		l.accept()
		r = l.next()
		if r == '+' || r == '-' {
			l.accept()
			r = l.next()
		}
		for isDigit(r) {
			l.accept()
			r = l.next()
		}
	}
	l.backup()
	if float {
		l.emit(FLOATLITERAL)
	} else {
		l.emit(INTLITERAL)
	}
	return lexProg
}

// Lex an identifier, or keyword.
func lexIdentifier(l *Lexer) stateFn {
	l.accept()
Loop:
	for {
		switch r := l.next(); {
		case isAlnum(r) || r == '_':
			l.accept()
		default:
			l.backup()
			break Loop
		}
	}
	if r, ok := keywords[l.text.String()]; ok {
		l.emit(r)
	} else {
		l.emit(ID)
	}
	return lexProg
}

// Helper predicates.

// isAlpha reports whether r is an alphabetical rune.
func isAlpha(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isAlnum reports whether r is an alphanumeric rune.
func isAlnum(r rune) bool {
	return isAlpha(r) || isDigit(r)
}

// isDigit reports whether r is a numerical rune.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isSpace reports whether r is whitespace other than a newline.
func isSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}
