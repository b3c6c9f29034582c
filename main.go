// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// hookprof replays a hook event capture recorded from a script interpreter
// run, rebuilds the call tree the run produced, and writes the folded stack
// report (and optionally a pprof profile) for it. The process exits with
// the profiled run's own result code.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/scriptprof/hookprof/calltree"
	"github.com/scriptprof/hookprof/capture"
	"github.com/scriptprof/hookprof/cycles"
	"github.com/scriptprof/hookprof/reporter"
	"github.com/scriptprof/hookprof/symbolizer"
	"github.com/scriptprof/hookprof/vc"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() exitCode {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		return parseError("Failure to parse arguments: %v", err)
	}

	if args.version {
		fmt.Printf("%s\n", vc.Version())
		return exitSuccess
	}

	if args.verboseMode {
		log.SetLevel(log.DebugLevel)
		// Dump the arguments in debug mode.
		args.dump()
	}

	if code := sanityCheck(args); code != exitSuccess {
		return code
	}

	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	return run(mainCtx, args)
}

func run(ctx context.Context, args *arguments) exitCode {
	startTime := time.Now()
	log.Infof("Starting %s", vc.Describe())

	digest, err := capture.Digest(args.capture)
	if err != nil {
		return failure("Failed to read capture %s: %v", args.capture, err)
	}

	f, err := os.Open(args.capture)
	if err != nil {
		return failure("Failed to open capture %s: %v", args.capture, err)
	}
	defer f.Close()

	cr, err := capture.NewReader(f)
	if err != nil {
		return failure("Failed to read capture %s: %v", args.capture, err)
	}

	clock := &cycles.ManualClock{}
	session := calltree.NewSession(clock)
	player := capture.NewPlayer(cr, clock)

	log.Infof("Replaying capture %s (run label %q) as session %s",
		args.capture, cr.Label(), session.ID())

	code, sawExit, err := player.Replay(ctx, session)
	if err != nil {
		return failure("Failed to replay capture: %v", err)
	}
	session.Finalize()

	resolver := symbolizer.NewResolver(symbolSource(args, player))

	folded := reporter.NewFolded(args.output, resolver)
	reporters := []reporter.TreeReporter{folded}
	if args.pprofPath != "" {
		comments := []string{
			"session " + session.ID().String(),
			"capture sha256 " + digest,
			"run label " + cr.Label(),
			vc.Describe(),
		}
		reporters = append(reporters, reporter.NewPprof(args.pprofPath, resolver, comments...))
	}

	root := session.Root()
	g, _ := errgroup.WithContext(ctx)
	for _, rep := range reporters {
		g.Go(func() error { return rep.ReportTree(root) })
	}
	if err = g.Wait(); err != nil {
		// The profiled run's outcome decides the exit code; a report
		// failure must not mask it.
		log.Errorf("Failed to write report: %v", err)
	} else {
		log.Infof("Report written to %s (fingerprint %016x)",
			args.output, folded.Fingerprint())
	}

	stats := session.Stats()
	hits, misses, failures := resolver.Stats()
	log.Infof("Replayed %d events into %d frames (max depth %d) in %v",
		stats.Events, stats.Nodes, stats.MaxDepth, time.Since(startTime))
	log.Debugf("Symbolizer: %d hits, %d misses, %d failed lookups",
		hits, misses, failures)

	if !sawExit {
		log.Warnf("Profiled run aborted before finishing")
		return exitFailure
	}
	return exitCode(code)
}

// symbolSource builds the native symbol source for report labels: an
// explicit map file when one was given, then the symbol table embedded in
// the capture. Both are optional; without either, native frames keep their
// hex address labels.
func symbolSource(args *arguments, player *capture.Player) symbolizer.Source {
	var mapFile symbolizer.Source
	if args.symbolsPath != "" {
		m, err := symbolizer.LoadMapFile(args.symbolsPath)
		if err != nil {
			log.Warnf("Failed to load symbols from %s: %v", args.symbolsPath, err)
		} else {
			mapFile = m
		}
	}
	var table symbolizer.Source
	if player.Symbols().Len() > 0 {
		table = player.Symbols()
	}
	return symbolizer.Chain(mapFile, table)
}

func sanityCheck(args *arguments) exitCode {
	if args.capture == "" {
		return parseError("A capture file must be given with -capture")
	}
	if args.output == "" {
		return parseError("The report destination -output must not be empty")
	}
	return exitSuccess
}

func parseError(msg string, args ...interface{}) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...interface{}) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
