// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	borderfilter "m4o.io/borderfilter"
	"m4o.io/borderfilter/cmd/borderfilter/cli"
)

// Exit codes, kept compatible with the wider OSMBorder/OSMCoastline tool
// family.
const (
	exitOK      = 0
	exitFatal   = 3
	exitCmdline = 4
)

// version is stamped by the release build.
var version = "dev"

var (
	output     string
	changefile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "borderfilter [flags] OSMFILE",
	Short: "Extract administrative boundaries from an OSM PBF file",
	Long: `Extract administrative boundary relations, with the ways and nodes they
reference, from an OSM PBF file.  An optional JSON change file forces
relations in or out of the result and overrides tags on selected ways.

Exit codes:
  0  success
  3  fatal runtime error (I/O failure on input or output)
  4  command line usage error`,
	Args:          cobra.ExactArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// fatalError marks runtime failures so main can exit with exitFatal
// rather than the usage-error code.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&output, "output", "o", "", "where to write output (required)")
	flags.StringVarP(&changefile, "changefile", "c", "", "JSON file of relations to force or drop and way tags to override")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// declared here so the shorthand is -V; cobra reuses this flag for
	// its version handling
	flags.BoolP("version", "V", false, "show version and exit")

	cobra.CheckErr(rootCmd.MarkFlagRequired("output"))
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	changes := borderfilter.NewChanges()

	if changefile != "" {
		loaded, err := borderfilter.LoadChangeFile(changefile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "changefile gave error, not using: %v\n", err)
		}

		changes = loaded
	}

	source := &borderfilter.FileSource{Path: args[0]}
	if verbose {
		source.WrapReader = cli.WrapInputFile
	}

	sink, err := borderfilter.NewFileSink(output)
	if err != nil {
		return &fatalError{err: err}
	}

	pipeline := borderfilter.NewPipeline(source, sink,
		borderfilter.WithChanges(changes),
		borderfilter.WithLogger(logger))

	if _, err := pipeline.Run(cmd.Context()); err != nil {
		return &fatalError{err: err}
	}

	if verbose {
		reportMemory(logger)
	}

	return nil
}

// reportMemory narrates heap usage at the end of a verbose run.
func reportMemory(logger *slog.Logger) {
	var m runtime.MemStats

	runtime.ReadMemStats(&m)

	logger.Info("Memory used",
		"heap", humanize.IBytes(m.HeapAlloc),
		"sys", humanize.IBytes(m.Sys))
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var fatal *fatalError
		if errors.As(err, &fatal) {
			os.Exit(exitFatal)
		}

		fmt.Fprintf(os.Stderr, "Usage: %s\n", rootCmd.UseLine())
		os.Exit(exitCmdline)
	}

	os.Exit(exitOK)
}
