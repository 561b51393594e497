// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Package server runs the translator in watch mode: sources are translated
// as they change, and the translator's metrics are served over HTTP.
package server

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/translator"
	"github.com/ml2eigen/ml2eigen/internal/watcher"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"go.opencensus.io/zpages"
)

// Server contains the state of the watching translator.
type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	w      watcher.Watcher

	t *translator.Translator      // t translates the sources
	p *translator.SourceProcessor // p receives watcher events for the sources

	reg *prometheus.Registry

	h        *http.Server
	listener net.Listener

	webquit   chan struct{} // Channel to signal shutdown from web UI
	closeQuit chan struct{} // Channel to signal shutdown from code
	closeOnce sync.Once     // Ensure shutdown happens only once

	bindAddress    string              // address of the HTTP listener, if any
	buildInfo      BuildInfo           // go build information
	sourceDirs     []string            // directories of sources to watch
	outDir         string              // directory to write generated code to
	translatorOpts []translator.Option // passed through to the translator
}

// New creates a Server from the supplied Options.  Events from w drive
// retranslation.
func New(ctx context.Context, w watcher.Watcher, options ...Option) (*Server, error) {
	m := &Server{
		w:         w,
		webquit:   make(chan struct{}),
		closeQuit: make(chan struct{}),
		h:         &http.Server{},
		reg:       prometheus.NewRegistry(),
	}
	m.ctx, m.cancel = context.WithCancel(ctx)

	expvarDescs := map[string]*prometheus.Desc{
		// internal/translator/translator.go
		"translations_total":           prometheus.NewDesc("translations_total", "number of successful translations by source filename", []string{"source"}, nil),
		"translation_errors_total":     prometheus.NewDesc("translation_errors_total", "number of failed translations by source filename", []string{"source"}, nil),
		"translation_cache_hits_total": prometheus.NewDesc("translation_cache_hits_total", "number of translations answered from the cache", nil, nil),
		// internal/translator/processor.go
		"outputs_written_total": prometheus.NewDesc("outputs_written_total", "number of generated files written", nil, nil),
		"outputs_removed_total": prometheus.NewDesc("outputs_removed_total", "number of generated files removed with their source", nil, nil),
		// internal/watcher/source_watcher.go
		"source_watcher_error_count": prometheus.NewDesc("source_watcher_error_count", "number of errors received from fsnotify", nil, nil),
	}
	m.reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	// Prefix all expvar metrics with 'ml2eigen_'
	prometheus.WrapRegistererWithPrefix("ml2eigen_", m.reg).MustRegister(
		prometheus.NewExpvarCollector(expvarDescs))
	if err := m.SetOption(options...); err != nil {
		return nil, err
	}

	// Create ml2eigen_build_info metric.
	version.Branch = m.buildInfo.Branch
	version.Version = m.buildInfo.Version
	version.Revision = m.buildInfo.Revision
	m.reg.MustRegister(version.NewCollector("ml2eigen"))

	var err error
	opts := append([]translator.Option{translator.PrometheusRegisterer(m.reg)}, m.translatorOpts...)
	m.t, err = translator.New(opts...)
	if err != nil {
		return nil, err
	}
	m.p = translator.NewSourceProcessor(m.t, m.outDir)
	return m, nil
}

// SetOption takes one or more option functions and applies them in order to Server.
func (m *Server) SetOption(options ...Option) error {
	for _, option := range options {
		if err := option.apply(m); err != nil {
			return err
		}
	}
	return nil
}

// Run translates every source in the source directories, then watches them
// for changes.
func (m *Server) Run() error {
	if len(m.sourceDirs) == 0 {
		return errors.New("no source directories to watch")
	}
	for _, dir := range m.sourceDirs {
		if err := m.p.Watch(m.ctx, m.w, dir); err != nil {
			return errors.Wrapf(err, "failed to watch %q", dir)
		}
		glog.Infof("Watching %s for changes", dir)
	}
	return nil
}

// Serve begins the webserver and awaits a shutdown instruction.  Without a
// bind address it only awaits the shutdown.
func (m *Server) Serve() error {
	if m.listener == nil {
		m.WaitForShutdown()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/", m)
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/quitquitquit", m.quitHandler)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	zpages.Handle(mux, "/")
	m.h.Handler = mux

	errc := make(chan error, 1)
	go func() {
		glog.Infof("Listening on %s", m.bindAddress)
		err := m.h.Serve(m.listener)
		if err == http.ErrServerClosed {
			err = nil
		}
		errc <- err
	}()
	m.WaitForShutdown()
	return <-errc
}

func (m *Server) quitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Add("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	close(m.webquit)
}

// WaitForShutdown handles shutdown requests from the system or the UI.
func (m *Server) WaitForShutdown() {
	n := make(chan os.Signal, 1)
	signal.Notify(n, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(n)
	select {
	case <-m.ctx.Done():
		glog.Info("External shutdown, exiting...")
	case <-n:
		glog.Info("Received SIGTERM, exiting...")
	case <-m.webquit:
		glog.Info("Received Quit from HTTP, exiting...")
	case <-m.closeQuit:
		glog.Info("Received quit internally, exiting...")
	}
	if err := m.Close(); err != nil {
		glog.Warning(err)
	}
}

// Close handles the graceful shutdown of this Server, ensuring that it only
// occurs once.
func (m *Server) Close() (err error) {
	m.closeOnce.Do(func() {
		glog.Info("Shutdown requested.")
		close(m.closeQuit)
		m.cancel()
		for _, dir := range m.sourceDirs {
			if uerr := m.w.Unobserve(dir, m.p); uerr != nil {
				glog.Info(uerr)
			}
		}
		if m.listener != nil {
			glog.Info("Shutting down http server")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if serr := m.h.Shutdown(ctx); serr != nil {
				glog.Error(serr)
			}
			cancel()
		}
		err = m.w.Close()
	})
	return
}

// Addr returns the address the HTTP server listens on, or "" if it has none.
func (m *Server) Addr() string {
	return m.bindAddress
}
