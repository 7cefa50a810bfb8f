// Package inmet reads the yearly per-station CSV exports published by INMET.
package inmet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

const (
	metadataLines = 8
	missingValue  = -9999
)

type field int

const (
	fieldDate field = iota
	fieldHour
	fieldPrecipitation
	fieldPressure
	fieldTemperature
	fieldDewPoint
	fieldHumidity
	fieldWindSpeed
	fieldCount
)

// dataColumns are matched against folded header names by prefix, in order.
var dataColumns = []struct {
	prefix string
	field  field
}{
	{"DATA", fieldDate},
	{"HORA", fieldHour},
	{"PRECIPITACAO TOTAL", fieldPrecipitation},
	{"PRESSAO ATMOSFERICA AO NIVEL DA ESTACAO", fieldPressure},
	{"TEMPERATURA DO AR", fieldTemperature},
	{"TEMPERATURA DO PONTO DE ORVALHO", fieldDewPoint},
	{"UMIDADE RELATIVA DO AR", fieldHumidity},
	{"VENTO, VELOCIDADE HORARIA", fieldWindSpeed},
}

// ParseFile reads the station metadata and hourly observations of one file.
func ParseFile(path string) (domain.StationInfo, []domain.HourlyObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.StationInfo{}, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an INMET export from r, which must be Latin-1 encoded.
func Parse(r io.Reader) (domain.StationInfo, []domain.HourlyObservation, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	info, err := parseMetadata(reader)
	if err != nil {
		return domain.StationInfo{}, nil, err
	}

	header, err := reader.Read()
	if err != nil {
		return domain.StationInfo{}, nil, fmt.Errorf("read data header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return domain.StationInfo{}, nil, err
	}

	var rows []domain.HourlyObservation
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.StationInfo{}, nil, fmt.Errorf("read data row: %w", err)
		}
		obs, ok := parseRow(info.Code, cols, rec)
		if !ok {
			continue
		}
		rows = append(rows, obs)
	}
	if len(rows) == 0 {
		return domain.StationInfo{}, nil, fmt.Errorf("%w: no valid data rows", domain.ErrNoRows)
	}
	return info, rows, nil
}

func parseMetadata(reader *csv.Reader) (domain.StationInfo, error) {
	var info domain.StationInfo
	for i := 0; i < metadataLines; i++ {
		rec, err := reader.Read()
		if err != nil {
			return info, fmt.Errorf("read metadata line %d: %w", i+1, err)
		}
		rec = trimTrailingEmpty(rec)
		if len(rec) != 2 {
			return info, fmt.Errorf("metadata line %d has %d columns, expected 2", i+1, len(rec))
		}
		key := domain.Fold(rec[0])
		value := strings.TrimSpace(rec[1])

		switch {
		case strings.HasPrefix(key, "REGIAO"):
			info.Region = value
		case strings.HasPrefix(key, "UF"):
			info.UF = value
		case strings.HasPrefix(key, "ESTACAO"):
			info.Name = value
		case strings.HasPrefix(key, "CODIGO"):
			info.Code = strings.ToUpper(value)
		case strings.HasPrefix(key, "LATITUDE"):
			info.Latitude = parseDecimal(value)
		case strings.HasPrefix(key, "LONGITUDE"):
			info.Longitude = parseDecimal(value)
		case strings.HasPrefix(key, "ALTITUDE"):
			info.Altitude = parseDecimal(value)
		case strings.HasPrefix(key, "DATA DE FUNDACAO"):
			info.FoundationDate = value
		}
	}
	if info.Code == "" {
		return info, errors.New("metadata has no station code")
	}
	return info, nil
}

func mapColumns(header []string) ([fieldCount]int, error) {
	var cols [fieldCount]int
	for i := range cols {
		cols[i] = -1
	}
	found := 0
	for i, name := range header {
		folded := domain.Fold(name)
		for _, dc := range dataColumns {
			if strings.HasPrefix(folded, dc.prefix) {
				if cols[dc.field] < 0 {
					cols[dc.field] = i
					found++
				}
				break
			}
		}
	}
	if found != int(fieldCount) {
		return cols, fmt.Errorf("%w: found %d of %d data columns", domain.ErrMissingColumns, found, fieldCount)
	}
	return cols, nil
}

func parseRow(station string, cols [fieldCount]int, rec []string) (domain.HourlyObservation, bool) {
	get := func(f field) string {
		i := cols[f]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ts, err := parseTimestamp(get(fieldDate), get(fieldHour))
	if err != nil {
		return domain.HourlyObservation{}, false
	}
	return domain.HourlyObservation{
		Station:       station,
		Time:          ts,
		Precipitation: parseDecimal(get(fieldPrecipitation)),
		Pressure:      parseDecimal(get(fieldPressure)),
		Temperature:   parseDecimal(get(fieldTemperature)),
		DewPoint:      parseDecimal(get(fieldDewPoint)),
		Humidity:      parseDecimal(get(fieldHumidity)),
		WindSpeed:     parseDecimal(get(fieldWindSpeed)),
	}, true
}

// parseTimestamp accepts "2023/01/31" or "2019-01-31" with "1600 UTC" or "16:00".
func parseTimestamp(date, hour string) (time.Time, error) {
	date = strings.ReplaceAll(date, "/", "-")
	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return time.Time{}, err
	}

	hour = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(hour), "UTC"))
	hour = strings.ReplaceAll(hour, ":", "")
	if hour == "" || len(hour) > 4 {
		return time.Time{}, fmt.Errorf("invalid hour %q", hour)
	}
	for len(hour) < 4 {
		hour = "0" + hour
	}
	hh, errH := strconv.Atoi(hour[:2])
	mm, errM := strconv.Atoi(hour[2:4])
	if errH != nil || errM != nil || hh > 23 || mm > 59 || hh < 0 || mm < 0 {
		return time.Time{}, fmt.Errorf("invalid hour %q", hour)
	}
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), nil
}

// parseDecimal reads a decimal-comma number; blanks and -9999 are missing.
func parseDecimal(s string) domain.Reading {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Reading{}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || v == missingValue {
		return domain.Reading{}
	}
	return domain.Some(v)
}

func trimTrailingEmpty(rec []string) []string {
	for len(rec) > 0 && strings.TrimSpace(rec[len(rec)-1]) == "" {
		rec = rec[:len(rec)-1]
	}
	return rec
}
