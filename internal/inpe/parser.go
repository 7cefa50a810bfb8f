// Package inpe reads INPE satellite fire-hotspot exports and condenses them
// into daily, per-municipality hotspots attached to INMET stations.
package inpe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

const missingValue = "-999"

// RequiredColumns are the raw header names every INPE file must carry.
var RequiredColumns = []string{"lat", "lon", "data_hora_gmt", "satelite", "municipio", "estado", "bioma"}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02",
}

// File is the parsed content of one INPE export.
type File struct {
	Detections []domain.HotspotDetection
	// BadTimestamps counts rows whose timestamp was present but matched no
	// known layout. Those rows carry a zero Time.
	BadTimestamps int
}

// ParseFile reads every detection in an INPE CSV file.
func ParseFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	parsed, err := Parse(f)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return parsed, nil
}

// Parse reads comma-separated INPE detections from r. State names are
// converted to two-letter UF codes and -999 marks a missing value.
func Parse(r io.Reader) (File, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return File{}, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return File{}, fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}

	var out File
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return File{}, fmt.Errorf("read row: %w", err)
		}
		get := func(col string) string {
			i := cols[col]
			if i >= len(rec) {
				return ""
			}
			v := strings.TrimSpace(rec[i])
			if v == missingValue || v == "-999.0" {
				return ""
			}
			return v
		}

		d := domain.HotspotDetection{
			Latitude:     parseFloat(get("lat")),
			Longitude:    parseFloat(get("lon")),
			Satellite:    get("satelite"),
			Municipality: get("municipio"),
			UF:           domain.UFCode(get("estado")),
			Biome:        get("bioma"),
		}
		if ts := get("data_hora_gmt"); ts != "" {
			if d.Time, err = parseTimestamp(ts); err != nil {
				out.BadTimestamps++
			}
		}
		out.Detections = append(out.Detections, d)
	}
	return out, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseFloat(s string) domain.Reading {
	if s == "" {
		return domain.Reading{}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return domain.Reading{}
	}
	return domain.Some(v)
}
