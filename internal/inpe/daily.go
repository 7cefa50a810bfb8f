package inpe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// Preprocessor condenses raw detections into daily hotspots. Geocoder is
// optional and only consulted for detections without municipality or UF.
type Preprocessor struct {
	Stations []domain.StationInfo
	Geocoder domain.Geocoder
	Logger   *slog.Logger
}

type detectionKey struct {
	unix         int64
	hasTime      bool
	lat, lon     domain.Reading
	satellite    string
	municipality string
	uf           string
	biome        string
}

type groupKey struct {
	date         string
	municipality string
	uf           string
	biome        string
}

type coordSum struct {
	lat, lon []domain.Reading
}

// PreprocessMonth reads files and returns one Hotspot per (date,
// municipality, UF, biome), sorted by that key, with the nearest station
// and its distance in km. Coordinates and distances are rounded to two
// decimals.
func (p *Preprocessor) PreprocessMonth(ctx context.Context, files []string) ([]domain.Hotspot, error) {
	if len(files) == 0 {
		return nil, errors.New("no files for month")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var detections []domain.HotspotDetection
	seen := make(map[detectionKey]struct{})
	for _, path := range files {
		parsed, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		if parsed.BadTimestamps > 0 {
			logger.Warn("dropping rows with unreadable timestamp",
				"file", filepath.Base(path),
				"rows", parsed.BadTimestamps,
			)
		}
		for _, d := range parsed.Detections {
			k := keyOf(d)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			detections = append(detections, d)
		}
	}

	last := filepath.Base(files[len(files)-1])
	if allMissing(detections) {
		return nil, fmt.Errorf("%s: %w: only null values found", last, domain.ErrNoRows)
	}

	timed := detections[:0]
	for _, d := range detections {
		if !d.Time.IsZero() {
			timed = append(timed, d)
		}
	}
	if len(timed) == 0 {
		return nil, fmt.Errorf("%s: %w: no rows left after dropping rows without timestamp", last, domain.ErrNoRows)
	}

	groups := make(map[groupKey]*coordSum)
	for _, d := range timed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d = domain.PlaceDetection(ctx, d, p.Geocoder, logger)
		if d.Municipality == "" || d.UF == "" || d.Biome == "" {
			continue
		}
		k := groupKey{
			date:         d.Time.Format(domain.DateLayout),
			municipality: d.Municipality,
			uf:           d.UF,
			biome:        d.Biome,
		}
		g, ok := groups[k]
		if !ok {
			g = &coordSum{}
			groups[k] = g
		}
		g.lat = append(g.lat, d.Latitude)
		g.lon = append(g.lon, d.Longitude)
	}

	out := make([]domain.Hotspot, 0, len(groups))
	for k, g := range groups {
		lat, lon := meanOf(g.lat), meanOf(g.lon)
		if !lat.Valid || !lon.Valid {
			continue
		}
		h := domain.Hotspot{
			Date:         k.date,
			Municipality: k.municipality,
			UF:           k.uf,
			Biome:        k.biome,
			Latitude:     domain.Round(lat.Value, 2),
			Longitude:    domain.Round(lon.Value, 2),
		}
		if st, dist, ok := domain.NearestStation(lat.Value, lon.Value, p.Stations); ok {
			h.NearestStation = st.Code
			h.Distance = domain.Round(dist, 2)
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Municipality != b.Municipality {
			return a.Municipality < b.Municipality
		}
		if a.UF != b.UF {
			return a.UF < b.UF
		}
		return a.Biome < b.Biome
	})
	return out, nil
}

func keyOf(d domain.HotspotDetection) detectionKey {
	k := detectionKey{
		lat:          d.Latitude,
		lon:          d.Longitude,
		satellite:    d.Satellite,
		municipality: d.Municipality,
		uf:           d.UF,
		biome:        d.Biome,
	}
	if !d.Time.IsZero() {
		k.hasTime = true
		k.unix = d.Time.Unix()
	}
	return k
}

func allMissing(ds []domain.HotspotDetection) bool {
	for _, d := range ds {
		if !d.Time.IsZero() || d.Latitude.Valid || d.Longitude.Valid ||
			d.Satellite != "" || d.Municipality != "" || d.UF != "" || d.Biome != "" {
			return false
		}
	}
	return true
}

func meanOf(values []domain.Reading) domain.Reading {
	var total float64
	n := 0
	for _, v := range values {
		if v.Valid {
			total += v.Value
			n++
		}
	}
	if n == 0 {
		return domain.Reading{}
	}
	return domain.Some(total / float64(n))
}
