// Command validate checks the integrity of the preprocessed outputs: the
// station catalogue, the merged history and the combined dashboard dataset.
// It verifies column presence, record identity, date continuity of the
// predictions and that the stored indices match a recomputation.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/adapter/csvfile"
	"github.com/bzamith/BR-FireRisk-Dashboard/internal/preprocess"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "root of preprocessed_data/")
	flag.Parse()

	if code := run(preprocess.Layout{DataDir: *dataDir}); code != 0 {
		os.Exit(code)
	}
}

func run(layout preprocess.Layout) int {
	fmt.Println("=== Fire Risk Data Integrity Validation ===")
	fmt.Println()

	stations, err := csvfile.ReadStations(layout.Stations())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load stations: %v\n", err)
		return 1
	}
	merged, err := csvfile.ReadRecords(layout.Merged())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load merged data: %v\n", err)
		return 1
	}
	combined, err := csvfile.ReadRecords(layout.Combined())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load combined data: %v\n", err)
		return 1
	}

	phases := validate(stations, merged, combined)

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d stations, %d merged, %d combined\n", len(stations), len(merged), len(combined))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}
