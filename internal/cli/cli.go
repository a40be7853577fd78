package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Args are the command-line arguments for a single run.
type Args struct {
	// URL is one URL to analyze. Mutually exclusive with File.
	URL string

	// File is a newline-delimited list of URLs for batch analysis.
	File string

	// JSON switches the report from text to JSON lines.
	JSON bool

	// History, when non-empty, is a SQLite path to persist results to.
	History string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns Args. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*Args, error) {
	fs := flag.NewFlagSet("mehrguard", flag.ContinueOnError)
	var (
		url     = fs.String("url", "", "URL to analyze")
		file    = fs.String("file", "", "Newline-delimited file of URLs for batch analysis")
		jsonOut = fs.Bool("json", false, "Emit JSON lines instead of a text report")
		history = fs.String("history", "", "SQLite path to persist results (empty = no persistence)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if strings.TrimSpace(*url) == "" && strings.TrimSpace(*file) == "" {
		return nil, fmt.Errorf("one of -url or -file is required")
	}
	if *url != "" && *file != "" {
		return nil, fmt.Errorf("-url and -file are mutually exclusive")
	}

	return &Args{
		URL:     *url,
		File:    *file,
		JSON:    *jsonOut,
		History: *history,
		RawArgs: args,
	}, nil
}
