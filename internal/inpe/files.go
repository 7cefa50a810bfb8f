package inpe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var monthPattern = regexp.MustCompile(`_(20\d{4})`)

// Files lists the CSV files in dir, sorted by name.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inpe dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Months returns the unique YYYYMM months named by the files, sorted.
func Months(files []string) []string {
	seen := make(map[string]struct{})
	var months []string
	for _, f := range files {
		m := monthPattern.FindStringSubmatch(filepath.Base(f))
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		months = append(months, m[1])
	}
	sort.Strings(months)
	return months
}

// MonthFiles returns the files whose name carries month.
func MonthFiles(files []string, month string) []string {
	var out []string
	for _, f := range files {
		if strings.Contains(filepath.Base(f), "_"+month) {
			out = append(out, f)
		}
	}
	return out
}
