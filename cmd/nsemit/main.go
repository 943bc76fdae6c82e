// Package main is the entry point for the nsemit scenario runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/nsemit/internal/config"
	"github.com/dshills/nsemit/internal/logging"
	"github.com/dshills/nsemit/internal/scenario"
	"github.com/dshills/nsemit/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// errHelp is returned by parseFlags when -help or -version was handled.
var errHelp = errors.New("help requested")

type options struct {
	config.Settings
	Path string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	opts, err := parseFlags(args, settings, stdout, stderr)
	if err != nil {
		if errors.Is(err, errHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	cfg := logging.DefaultConfig()
	cfg.Level = opts.Level()
	cfg.Output = stderr
	logger := logging.New(cfg)

	runnerOpts := []scenario.RunnerOption{scenario.WithLogger(logger)}
	if opts.Isolate {
		runnerOpts = append(runnerOpts, scenario.WithIsolation())
	}
	runner := scenario.NewRunner(stdout, runnerOpts...)

	code := runOnce(runner, opts.Path, stderr)
	if !opts.Watch {
		return code
	}

	w, err := watch.New(opts.Path,
		watch.WithDelay(opts.Debounce),
		watch.WithLogger(logger.WithComponent("watch")),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	logger.Info("watching %s", w.Path())
	err = w.Run(ctx, func() {
		fmt.Fprintln(stdout)
		runOnce(runner, opts.Path, stderr)
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

// runOnce loads and runs the scenario at path and returns an exit code.
func runOnce(runner *scenario.Runner, path string, stderr io.Writer) int {
	sc, err := scenario.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	report, err := runner.Run(sc)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	if !report.OK() {
		return exitFailed
	}
	return exitOK
}

func parseFlags(args []string, settings config.Settings, stdout, stderr io.Writer) (options, error) {
	opts := options{Settings: settings}
	var showVersion bool
	var showHelp bool

	fs := flag.NewFlagSet("nsemit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.Isolate, "isolate", opts.Isolate, "Recover callback panics and keep delivering after failures")
	fs.BoolVar(&opts.Watch, "watch", opts.Watch, "Re-run the scenario whenever the file changes")
	fs.BoolVar(&opts.Watch, "w", opts.Watch, "Re-run the scenario whenever the file changes (shorthand)")
	fs.DurationVar(&opts.Debounce, "debounce", opts.Debounce, "Quiet period before a change triggers a re-run")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "nsemit - run namespaced event emitter scenarios\n\n")
		fmt.Fprintf(stderr, "Usage: nsemit [options] scenario.toml\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment:\n")
		fmt.Fprintf(stderr, "  NSEMIT_LOG_LEVEL, NSEMIT_ISOLATE, NSEMIT_WATCH, NSEMIT_DEBOUNCE\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  nsemit players.toml           Run a scenario once\n")
		fmt.Fprintf(stderr, "  nsemit -w players.toml        Re-run on every save\n")
		fmt.Fprintf(stderr, "  nsemit -isolate players.yaml  Keep going after callback failures\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, errHelp
		}
		return opts, err
	}

	if showHelp {
		fs.Usage()
		return opts, errHelp
	}

	if showVersion {
		fmt.Fprintf(stdout, "nsemit %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return opts, errHelp
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected one scenario file, got %d arguments", fs.NArg())
	}
	opts.Path = fs.Arg(0)

	return opts, nil
}
