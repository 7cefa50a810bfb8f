package inmet

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

var stationCodePattern = regexp.MustCompile(`_(A\d{3})_`)

// Filter restricts which station files are read. Empty fields match all.
type Filter struct {
	Year    string
	UF      string
	Station string
}

func (f Filter) match(name string) bool {
	base := strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
	if f.Year != "" && !strings.HasSuffix(base, f.Year) {
		return false
	}
	if f.UF != "" && !strings.Contains(base, "_"+strings.ToUpper(f.UF)+"_") {
		return false
	}
	if f.Station != "" && !strings.Contains(base, "_"+strings.ToUpper(f.Station)+"_") {
		return false
	}
	return true
}

// Files lists the station CSVs in dir accepted by filter, sorted by name.
func Files(dir string, filter Filter) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read inmet dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if !filter.match(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// StationCodes returns the unique station codes found in file names.
func StationCodes(dir string) ([]string, error) {
	files, err := Files(dir, Filter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var codes []string
	for _, f := range files {
		m := stationCodePattern.FindStringSubmatch(strings.ToUpper(filepath.Base(f)))
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		codes = append(codes, m[1])
	}
	sort.Strings(codes)
	return codes, nil
}

// Result is what ReadStations extracted from a set of files.
type Result struct {
	Files    int
	Stations []domain.StationInfo
	Daily    []domain.DailyObservation
	Failed   []string
}

// ReadStations parses every file in dir accepted by filter. A file that
// fails is recorded in Result.Failed as "<basename> - <error>" and skipped.
// Station metadata comes from the last file read for each code.
func ReadStations(dir string, filter Filter) (Result, error) {
	files, err := Files(dir, filter)
	if err != nil {
		return Result{}, err
	}

	var (
		res      = Result{Files: len(files)}
		hourly   []domain.HourlyObservation
		stations = make(map[string]domain.StationInfo)
	)
	for _, path := range files {
		info, rows, err := ParseFile(path)
		if err != nil {
			res.Failed = append(res.Failed, fmt.Sprintf("%s - %v", filepath.Base(path), err))
			continue
		}
		stations[info.Code] = info
		hourly = append(hourly, rows...)
	}

	res.Daily = domain.AggregateDaily(hourly)
	for _, s := range stations {
		res.Stations = append(res.Stations, s)
	}
	sort.Slice(res.Stations, func(i, j int) bool {
		return res.Stations[i].Code < res.Stations[j].Code
	})
	return res, nil
}
