// Command streamfuzz stress-tests streaming decompressors with random
// input. It feeds each decoder one byte at a time from freshly generated
// garbage and aborts loudly the moment the decoder writes outside the
// buffers it was given.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kk-code-lab/streamfuzz/internal/app"
	"github.com/kk-code-lab/streamfuzz/internal/decoder"
	"github.com/kk-code-lab/streamfuzz/internal/fuzz"
	"github.com/kk-code-lab/streamfuzz/internal/journal"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	mode := flag.String("mode", "run", "Mode: run|variants|report")
	maxLen := flag.Int("max-len", fuzz.DefaultMaxLen, "Random input bytes per iteration")
	iterations := flag.Int("iterations", 0, "Iteration count (0 = run until interrupted)")
	seed := flag.Int64("seed", 0, "Random seed (0 = derive from wall clock)")
	journalPath := flag.String("journal", "", "SQLite journal path (empty = no journal)")
	jsonOut := flag.Bool("json", false, "Output report as JSON")
	quiet := flag.Bool("quiet", false, "Suppress per-iteration progress lines")
	flag.Parse()

	if *showVersion {
		fmt.Printf("streamfuzz %s (commit %s)\n", app.Version, app.BuildCommit)
		return
	}

	switch *mode {
	case "variants":
		for _, name := range decoder.Names() {
			fmt.Println(name)
		}
	case "report":
		if *journalPath == "" {
			fmt.Fprintln(os.Stderr, "report mode requires -journal")
			os.Exit(2)
		}
		if err := runReport(*journalPath, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "report error: %v\n", err)
			os.Exit(1)
		}
	case "run":
		if flag.NArg() != 1 {
			fmt.Fprintf(os.Stderr, "Usage: %s [flags] <decoder>\nDecoders: ", os.Args[0])
			for i, name := range decoder.Names() {
				if i > 0 {
					fmt.Fprint(os.Stderr, ", ")
				}
				fmt.Fprint(os.Stderr, name)
			}
			fmt.Fprintln(os.Stderr)
			flag.PrintDefaults()
			os.Exit(2)
		}
		if err := runFuzz(flag.Arg(0), *maxLen, *iterations, *seed, *journalPath, *quiet); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

func runFuzz(name string, maxLen, iterations int, seed int64, journalPath string, quiet bool) error {
	if _, ok := decoder.ForName(name); !ok {
		fmt.Fprintf(os.Stderr, "unknown decoder %q (see -mode variants)\n", name)
		os.Exit(2)
	}
	cfg := fuzz.Config{
		Variant:    name,
		MaxLen:     maxLen,
		Iterations: iterations,
		Seed:       seed,
		Quiet:      quiet,
	}
	if journalPath != "" {
		store, err := journal.Open(journalPath)
		if err != nil {
			return fmt.Errorf("journal open: %w", err)
		}
		defer store.Close()
		cfg.Journal = store
	}
	runner, err := fuzz.NewRunner(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("streamfuzz %s (commit %s) decoder=%s seed=%d\n",
		app.Version, app.BuildCommit, name, runner.Seed())
	return runner.Run()
}

func runReport(path string, jsonOut bool) error {
	store, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	sums, err := store.Summaries(context.Background())
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(sums)
	}
	fmt.Print(formatSummaries(sums))
	return nil
}
