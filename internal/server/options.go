// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"net"

	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/ml2eigen/ml2eigen/internal/translator"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Option configures server.Server
type Option interface {
	apply(*Server) error
}

// SourceDirs sets the directories whose sources are translated and watched.
func SourceDirs(dirs ...string) Option {
	return sourceDirs(dirs)
}

type sourceDirs []string

func (opt sourceDirs) apply(m *Server) error {
	m.sourceDirs = append(m.sourceDirs, opt...)
	return nil
}

// OutputDir sets the directory generated code is written to.  When unset,
// each output is written beside its source.
type OutputDir string

func (opt OutputDir) apply(m *Server) error {
	m.outDir = string(opt)
	return nil
}

// BindAddress sets the HTTP server address in Server.
type BindAddress string

func (opt BindAddress) apply(m *Server) error {
	if m.listener != nil {
		return errors.New("HTTP server bind address already supplied")
	}
	var err error
	m.listener, err = net.Listen("tcp", string(opt))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %q", string(opt))
	}
	m.bindAddress = m.listener.Addr().String()
	return nil
}

// SetBuildInfo sets the program build information in the Server.
type SetBuildInfo BuildInfo

func (opt SetBuildInfo) apply(m *Server) error {
	m.buildInfo = BuildInfo(opt)
	return nil
}

// TranslatorOptions passes options through to the Server's translator.
func TranslatorOptions(opts ...translator.Option) Option {
	return translatorOptions(opts)
}

type translatorOptions []translator.Option

func (opt translatorOptions) apply(m *Server) error {
	m.translatorOpts = append(m.translatorOpts, opt...)
	return nil
}

// JaegerReporter creates a new jaeger reporter that sends to the given Jaeger endpoint address.
type JaegerReporter string

func (opt JaegerReporter) apply(m *Server) error {
	return RegisterJaegerExporter(string(opt))
}

// RegisterJaegerExporter sends sampled traces to the jaeger collector at endpoint.
func RegisterJaegerExporter(endpoint string) error {
	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: endpoint,
		Process: jaeger.Process{
			ServiceName: "ml2eigen",
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create jaeger exporter")
	}
	trace.RegisterExporter(je)
	return nil
}
