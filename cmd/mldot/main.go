// Copyright 2018 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

/*
Command mldot turns the shape-annotated AST of a source into a graphviz graph
on standard output.

To use, run it like

	go run github.com/ml2eigen/ml2eigen/cmd/mldot --src estimator.m --seed astra.yaml | xdot -
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator/ast"
	"github.com/ml2eigen/ml2eigen/internal/translator/canon"
	"github.com/ml2eigen/ml2eigen/internal/translator/checker"
	"github.com/ml2eigen/ml2eigen/internal/translator/parser"
	"github.com/ml2eigen/ml2eigen/internal/translator/shape"
)

var (
	src      = flag.String("src", "", "Name of the source to parse.")
	seedFile = flag.String("seed", "", "YAML file of the shapes known before translation starts.")
)

type dotter struct {
	w        io.Writer
	id       int
	parentID []int // id of the parent node
}

func (d *dotter) nextID() int {
	d.id++
	return d.id
}

func (d *dotter) emitNode(id int, node ast.Node) {
	attrs := map[string]string{
		"label": strings.Split(fmt.Sprintf("%T", node), ".")[1] + "\n",
		"shape": "box",
		"style": "filled",
	}
	switch n := node.(type) {
	case *ast.Function:
		attrs["fillcolor"] = "green"
		attrs["label"] += n.Name
	case *ast.IDTerm, *ast.SegmentExpr, *ast.BlockExpr, *ast.ElementExpr:
		attrs["fillcolor"] = "pink"
		attrs["shape"] = "ellipse"
		switch n := n.(type) {
		case *ast.IDTerm:
			attrs["label"] += n.Qualified()
		case *ast.SegmentExpr:
			attrs["label"] += fmt.Sprintf("%s(%d:%d)", n.Qualified(), n.Range.Start, n.Range.End)
		case *ast.BlockExpr:
			attrs["label"] += fmt.Sprintf("%s(%d:%d, %d:%d)", n.Qualified(), n.Rows.Start, n.Rows.End, n.Cols.Start, n.Cols.End)
		case *ast.ElementExpr:
			attrs["label"] += fmt.Sprintf("%s(%d)", n.Qualified(), n.Index)
		}
	case *ast.IntLit, *ast.FloatLit:
		attrs["fillcolor"] = "pink"
		attrs["shape"] = "ellipse"
		switch n := n.(type) {
		case *ast.IntLit:
			attrs["label"] += n.Text
		case *ast.FloatLit:
			attrs["label"] += n.Text
		}
	case *ast.BinaryExpr, *ast.UnaryExpr, *ast.CallExpr:
		attrs["fillcolor"] = "lightblue"
		switch n := n.(type) {
		case *ast.BinaryExpr:
			attrs["label"] += n.Op.String()
		case *ast.UnaryExpr:
			attrs["label"] += n.Op.String()
		case *ast.CallExpr:
			attrs["label"] += n.Name + "()"
		}
	case *ast.Unparsed:
		attrs["fillcolor"] = "red"
	}
	if s := node.Shape(); !s.IsUnknown() {
		attrs["tooltip"] = shape.TypeName(s)
	}
	if pos := node.Pos(); pos != nil && !pos.IsZero() {
		attrs["xlabel"] = pos.String()
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(d.w, "%d [", id)
	for _, k := range keys {
		fmt.Fprintf(d.w, "%s=%q ", k, attrs[k])
	}
	fmt.Fprintf(d.w, "]\n")
}

func (d *dotter) emitLine(src, dst int) {
	fmt.Fprintf(d.w, "%d -> %d\n", src, dst)
}

func (d *dotter) VisitBefore(node ast.Node) (ast.Visitor, ast.Node) {
	id := d.nextID()
	d.emitNode(id, node)
	if len(d.parentID) > 0 {
		parentID := d.parentID[len(d.parentID)-1]
		d.emitLine(parentID, id)
	}
	d.parentID = append(d.parentID, id)
	return d, node
}

func (d *dotter) VisitAfter(node ast.Node) ast.Node {
	d.parentID = d.parentID[:len(d.parentID)-1]
	return node
}

// makeDot writes the graph of the annotated tree of the source in r.
func makeDot(name string, r io.Reader, seed *shape.Seed, w io.Writer) error {
	fn, err := parser.Parse(name, r)
	if err != nil {
		return err
	}
	fn, err = canon.Canonicalize(fn)
	if err != nil {
		return err
	}
	fn, warnings, err := checker.Check(name, fn, seed.Env(fn.Name))
	if err != nil {
		return err
	}
	for _, warning := range warnings.Strings() {
		glog.Warning(warning)
	}
	fmt.Fprintf(w, "digraph %q {\n", name)
	ast.Walk(&dotter{w: w}, fn)
	fmt.Fprintln(w, "}")
	return nil
}

func main() {
	flag.Parse()

	if *src == "" {
		glog.Exitf("No -src given")
	}
	seed := &shape.Seed{}
	if *seedFile != "" {
		var err error
		seed, err = shape.LoadSeed(*seedFile)
		if err != nil {
			glog.Exit(err)
		}
	}
	f, err := os.Open(*src)
	if err != nil {
		glog.Exit(err)
	}
	defer f.Close()
	if err := makeDot(*src, f, seed, os.Stdout); err != nil {
		glog.Exit(err)
	}
}
