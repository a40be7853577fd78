// Command mehrguard analyzes URLs for phishing risk, entirely offline.
// Usage:
//
//	mehrguard -url https://example.com/login
//	mehrguard -file urls.txt -json
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mehrguard/mehrguard/internal/cli"
	"github.com/mehrguard/mehrguard/internal/engine"
	"github.com/mehrguard/mehrguard/internal/history"
	"github.com/mehrguard/mehrguard/internal/knowledge"
	"github.com/mehrguard/mehrguard/internal/logging"
	"github.com/mehrguard/mehrguard/internal/model"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mehrguard: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewNopLogger()

	kb, err := knowledge.Load(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mehrguard: %v\n", err)
		os.Exit(1)
	}
	eng, err := engine.New(nil, kb, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mehrguard: %v\n", err)
		os.Exit(1)
	}

	var store *history.Store
	if args.History != "" {
		store, err = history.Open(args.History, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mehrguard: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	urls, err := collectURLs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mehrguard: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	for _, u := range urls {
		res := eng.Analyze(u)
		if store != nil {
			if err := store.Save(context.Background(), res); err != nil {
				fmt.Fprintf(os.Stderr, "mehrguard: saving result: %v\n", err)
			}
		}
		if args.JSON {
			b, _ := json.Marshal(res)
			fmt.Println(string(b))
		} else {
			printReport(res)
		}
		if res.Verdict == model.VerdictMalicious {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func collectURLs(args *cli.Args) ([]string, error) {
	if args.URL != "" {
		return []string{args.URL}, nil
	}
	f, err := os.Open(args.File)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", args.File, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func printReport(res *model.ScanResult) {
	fmt.Printf("%s  score=%d  %s\n", res.Verdict, res.Score, res.URL)
	if !res.RiskSignals() {
		fmt.Printf("  all checks passed\n  ml_probability=%.3f\n\n", res.MLProbability)
		return
	}
	for _, sig := range res.Signals {
		fmt.Printf("  [%s] %s: %s\n", sig.Severity, sig.Kind, sig.Explanation)
		if sig.Counterfactual != "" {
			fmt.Printf("      fix: %s\n", sig.Counterfactual)
		}
	}
	fmt.Printf("  ml_probability=%.3f\n\n", res.MLProbability)
}
