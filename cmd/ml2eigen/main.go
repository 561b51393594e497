// Copyright 2011 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

// Command ml2eigen translates functions written in a small matrix dialect
// into fixed-size Eigen C++.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/ml2eigen/ml2eigen/internal/server"
	"github.com/ml2eigen/ml2eigen/internal/translator"
	"github.com/ml2eigen/ml2eigen/internal/watcher"
	"go.opencensus.io/trace"
)

var (
	seedFile = flag.String("seed", "", "YAML file of the shapes known before translation starts.")
	outDir   = flag.String("out", "", "Directory to write generated code to.  If unset, single translations print to stdout and watched sources are written beside their source.")

	version = flag.Bool("version", false, "Print ml2eigen version information.")

	// Translator behaviour flags.
	dumpAst       = flag.Bool("dump_ast", false, "Dump AST of sources after parse (to INFO log).")
	dumpAstShapes = flag.Bool("dump_ast_shapes", false, "Dump AST of sources with shape annotation after inference (to INFO log).")
	cacheSize     = flag.Int("cache_size", 64, "Number of translations to remember by source content; 0 disables the cache.")

	// Watch mode flags.
	watch          = flag.Bool("watch", false, "Treat the arguments as directories, translate their sources, and retranslate whenever a source changes.")
	pollInterval   = flag.Duration("poll_interval", 250*time.Millisecond, "Interval between polls of watched directories; zero disables polling.")
	enableFsnotify = flag.Bool("enable_fsnotify", true, "Use fsnotify to find source changes as well as polling.")
	httpAddress    = flag.String("http_address", "", "If set, address of the HTTP listener serving /metrics in watch mode.")

	// Tracing.
	jaegerEndpoint    = flag.String("jaeger_endpoint", "", "If set, collector endpoint URL of jaeger thrift service")
	traceSamplePeriod = flag.Int("trace_sample_period", 0, "Sample period for traces.  If non-zero, every nth trace will be sampled.")
)

var (
	// Branch as well as Version and Revision identifies where in the git
	// history the build came from, as supplied by the linker when compiled
	// with `make'.  The defaults here indicate that the user did not use
	// `make' as instructed.
	Branch   = "invalid:-use-make-to-build"
	Version  = "invalid:-use-make-to-build"
	Revision = "invalid:-use-make-to-build"
)

func translatorOptions() []translator.Option {
	opts := []translator.Option{translator.CacheSize(*cacheSize)}
	if *seedFile != "" {
		opts = append(opts, translator.SeedFile(*seedFile))
	}
	if *dumpAst {
		opts = append(opts, translator.EmitAst())
	}
	if *dumpAstShapes {
		opts = append(opts, translator.EmitAstShapes())
	}
	return opts
}

// translateAll translates each named source once.  With no output directory
// the generated code is written to stdout.
func translateAll(ctx context.Context, t *translator.Translator, names []string, outDir string, stdout io.Writer) (failed int) {
	for _, name := range names {
		if outDir != "" {
			if _, err := t.TranslateFile(ctx, name, outDir); err != nil {
				glog.Error(err)
				failed++
			}
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			glog.Error(err)
			failed++
			continue
		}
		r, err := t.Translate(ctx, name, f)
		f.Close()
		if err != nil {
			glog.Error(err)
			failed++
			continue
		}
		fmt.Fprint(stdout, r.Output)
	}
	return
}

func main() {
	buildInfo := server.BuildInfo{
		Branch:   Branch,
		Version:  Version,
		Revision: Revision,
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", buildInfo.String())
		fmt.Fprintf(os.Stderr, "\nUsage: %s [flags] source.m...\n       %s -watch [flags] dir...\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *version {
		fmt.Println(buildInfo.String())
		os.Exit(0)
	}
	glog.Info(buildInfo.String())
	glog.Infof("Commandline: %q", os.Args)
	if flag.NArg() == 0 {
		flag.Usage()
		glog.Exitf("ml2eigen requires the names of sources to translate, or with -watch, the directories holding them.")
	}
	if *traceSamplePeriod > 0 {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(1 / float64(*traceSamplePeriod))})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*watch {
		if *jaegerEndpoint != "" {
			if err := server.RegisterJaegerExporter(*jaegerEndpoint); err != nil {
				glog.Exit(err)
			}
		}
		t, err := translator.New(translatorOptions()...)
		if err != nil {
			glog.Exit(err)
		}
		if failed := translateAll(ctx, t, flag.Args(), *outDir, os.Stdout); failed > 0 {
			glog.Exitf("%d of %d translations failed", failed, flag.NArg())
		}
		return
	}

	w, err := watcher.NewSourceWatcher(*pollInterval, *enableFsnotify)
	if err != nil {
		glog.Exit(err)
	}
	opts := []server.Option{
		server.SourceDirs(flag.Args()...),
		server.OutputDir(*outDir),
		server.SetBuildInfo(buildInfo),
		server.TranslatorOptions(translatorOptions()...),
	}
	if *httpAddress != "" {
		opts = append(opts, server.BindAddress(*httpAddress))
	}
	if *jaegerEndpoint != "" {
		opts = append(opts, server.JaegerReporter(*jaegerEndpoint))
	}
	m, err := server.New(ctx, w, opts...)
	if err != nil {
		glog.Exit(err)
	}
	if err := m.Run(); err != nil {
		glog.Exit(err)
	}
	if err := m.Serve(); err != nil {
		glog.Exit(err)
	}
}
