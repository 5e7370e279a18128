// Command mrv-verify re-verifies an MRV package folder offline, without a
// database: it re-hashes every file listed in checksums.json and reports
// per-file and aggregate results. For air-gapped auditors.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/carbonacre/carbonacre/internal/mrv"
)

type config struct {
	dir          string
	expectedHash string
	quiet        bool
}

func parseConfig() *config {
	cfg := &config{}
	flag.StringVar(&cfg.dir, "dir", "", "Package folder to verify (required)")
	flag.StringVar(&cfg.expectedHash, "hash", "", "Expected top-level hash to compare against (optional)")
	flag.BoolVar(&cfg.quiet, "quiet", false, "Only set the exit code, print nothing")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseConfig()
	if cfg.dir == "" {
		fmt.Fprintln(os.Stderr, "usage: mrv-verify -dir <package-folder> [-hash <expected>]")
		os.Exit(2)
	}

	stored, err := mrv.StoredChecksums(cfg.dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mrv-verify: %v\n", err)
		os.Exit(2)
	}
	aggregate, fresh, err := mrv.RecomputeDir(cfg.dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mrv-verify: %v\n", err)
		os.Exit(2)
	}

	ok := true
	paths := make([]string, 0, len(stored))
	for p := range stored {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		match := stored[p] == fresh[p]
		if !match {
			ok = false
		}
		if !cfg.quiet {
			status := "ok"
			if !match {
				status = "MISMATCH"
			}
			fmt.Printf("%-28s %s\n", p, status)
		}
	}

	if cfg.expectedHash != "" && cfg.expectedHash != aggregate {
		ok = false
	}
	if !cfg.quiet {
		fmt.Printf("aggregate: %s\n", aggregate)
		if cfg.expectedHash != "" {
			if cfg.expectedHash == aggregate {
				fmt.Println("aggregate matches expected hash")
			} else {
				fmt.Println("aggregate DOES NOT match expected hash")
			}
		}
	}

	if !ok {
		os.Exit(1)
	}
}
