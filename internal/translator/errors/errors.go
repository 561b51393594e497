// Copyright 2026 The ml2eigen Authors. All Rights Reserved.
// This file is available under the Apache license.

// Package errors holds the two severities of translation diagnostics.  A
// WarningList accumulates best-effort findings that never stop translation; an
// ErrorList holds the fatal conditions that abort translation of a function.
package errors

import (
	"fmt"
	"strings"

	"github.com/ml2eigen/ml2eigen/internal/translator/position"
	"github.com/pkg/errors"
)

type diagnostic struct {
	pos position.Position
	msg string
}

func (d diagnostic) String() string {
	return d.pos.String() + ": " + d.msg
}

func add(list []*diagnostic, pos *position.Position, msg string) []*diagnostic {
	d := &diagnostic{msg: msg}
	if pos != nil {
		d.pos = *pos
	}
	return append(list, d)
}

func join(list []*diagnostic) string {
	var b strings.Builder
	for i, d := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.String())
	}
	return b.String()
}

// ErrorList contains a list of fatal translation errors.
type ErrorList []*diagnostic

// Add appends an error at a position to the list of errors.
func (p *ErrorList) Add(pos *position.Position, msg string) {
	*p = add(*p, pos, msg)
}

// Append puts an ErrorList on the end of this ErrorList.
func (p *ErrorList) Append(l ErrorList) {
	*p = append(*p, l...)
}

// ErrorList implements the error interface.
func (p ErrorList) Error() string {
	if len(p) == 0 {
		return "no errors"
	}
	return join(p)
}

// WarningList contains the non-fatal diagnostics of a translation.
type WarningList []*diagnostic

// Add appends a warning at a position.
func (p *WarningList) Add(pos *position.Position, msg string) {
	*p = add(*p, pos, msg)
}

// Addf appends a formatted warning at a position.
func (p *WarningList) Addf(pos *position.Position, format string, args ...interface{}) {
	p.Add(pos, fmt.Sprintf(format, args...))
}

// Append puts a WarningList on the end of this WarningList.
func (p *WarningList) Append(l WarningList) {
	*p = append(*p, l...)
}

// Strings returns each warning formatted as "file:line:col: message".
func (p WarningList) Strings() []string {
	r := make([]string, 0, len(p))
	for _, d := range p {
		r = append(r, d.String())
	}
	return r
}

func (p WarningList) String() string {
	return join(p)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}
