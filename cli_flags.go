// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// Default values for CLI flags
	defaultArgOutput = "stacks.folded"
)

// Help strings for command line arguments
var (
	captureHelp    = "Path of the hook event capture to replay. Required."
	configFileHelp = "Path to the profiler configuration file."
	outputHelp     = "Destination path of the folded stack report. " +
		"A .gz suffix enables gzip compression."
	pprofHelp = "Also write a gzipped pprof profile to the given path " +
		"(e.g. cpu.pb.gz)."
	symbolsHelp = "Load native symbols from the given map file " +
		"(lines of: start size name). Entries take precedence over symbols " +
		"embedded in the capture."
	verboseModeHelp = "Enable verbose logging and debugging capabilities."
	versionHelp     = "Show version."
)

type arguments struct {
	capture     string
	configFile  string
	output      string
	pprofPath   string
	symbolsPath string
	verboseMode bool
	version     bool

	fs *flag.FlagSet
}

func parseArgs(argv []string) (*arguments, error) {
	var args arguments

	fs := flag.NewFlagSet("hookprof", flag.ExitOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.StringVar(&args.capture, "capture", "", captureHelp)
	fs.StringVar(&args.configFile, "config", "", configFileHelp)

	fs.StringVar(&args.output, "o", defaultArgOutput, "Shorthand for -output.")
	fs.StringVar(&args.output, "output", defaultArgOutput, outputHelp)

	fs.StringVar(&args.pprofPath, "pprof", "", pprofHelp)

	fs.StringVar(&args.symbolsPath, "symbols", "", symbolsHelp)

	fs.BoolVar(&args.verboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.verboseMode, "verbose", false, verboseModeHelp)
	fs.BoolVar(&args.version, "version", false, versionHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	args.fs = fs

	return &args, ff.Parse(fs, argv,
		ff.WithEnvVarPrefix("HOOKPROF"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		// This will ignore configuration file (only) options that the current
		// version does not recognize.
		ff.WithIgnoreUndefined(true),
		ff.WithAllowMissingConfigFile(true),
	)
}

// dump logs every flag value, for verbose mode.
func (args *arguments) dump() {
	log.Debug("Config:")
	args.fs.VisitAll(func(f *flag.Flag) {
		log.Debug(fmt.Sprintf("%s: %v", f.Name, f.Value))
	})
}
