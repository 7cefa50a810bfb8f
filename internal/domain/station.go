package domain

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar-day format used in every output file.
const DateLayout = "2006-01-02"

// ReferenceHourUTC is 13h Brasília time, the hour fire-risk indices expect.
const ReferenceHourUTC = 16

// StationInfo is the metadata block at the top of an INMET file.
type StationInfo struct {
	Code           string  `json:"codigo_estacao"`
	Name           string  `json:"estacao"`
	Region         string  `json:"regiao"`
	UF             string  `json:"uf"`
	Latitude       Reading `json:"latitude"`
	Longitude      Reading `json:"longitude"`
	Altitude       Reading `json:"altitude"`
	FoundationDate string  `json:"data_fundacao"`
}

// HasCoordinates reports whether the station can take part in nearest-station lookups.
func (s StationInfo) HasCoordinates() bool {
	return s.Latitude.Valid && s.Longitude.Valid
}

// HourlyObservation is one data row of an INMET file.
type HourlyObservation struct {
	Station       string
	Time          time.Time
	Precipitation Reading
	Pressure      Reading
	Temperature   Reading
	DewPoint      Reading
	Humidity      Reading
	WindSpeed     Reading
}

// DailyObservation is a station day. It is also the message format on the
// streaming source topic.
type DailyObservation struct {
	Station       string  `json:"codigo_estacao"`
	Date          string  `json:"data"`
	Precipitation Reading `json:"precipitacao_total"`
	Pressure      Reading `json:"pressao_atmosferica"`
	Temperature   Reading `json:"temperatura_ar"`
	Humidity      Reading `json:"umidade_relativa"`
	DewPoint      Reading `json:"temperatura_ponto_orvalho"`
	WindSpeed     Reading `json:"velocidade_vento"`
}

// ParseDay parses a YYYY-MM-DD date in UTC.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// AggregateDaily folds hourly rows into station days, sorted by station and date.
func AggregateDaily(hourly []HourlyObservation) []DailyObservation {
	type key struct {
		station string
		date    string
	}
	groups := make(map[key][]HourlyObservation)
	for _, h := range hourly {
		k := key{station: h.Station, date: h.Time.UTC().Format(DateLayout)}
		groups[k] = append(groups[k], h)
	}

	out := make([]DailyObservation, 0, len(groups))
	for k, rows := range groups {
		out = append(out, aggregateDay(k.station, k.date, rows))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Station != out[j].Station {
			return out[i].Station < out[j].Station
		}
		return out[i].Date < out[j].Date
	})
	return out
}

func aggregateDay(station, date string, rows []HourlyObservation) DailyObservation {
	var precip, pressure, temp, humidity, dew, wind []Reading
	var ref *HourlyObservation
	for i := range rows {
		r := rows[i]
		precip = append(precip, r.Precipitation)
		pressure = append(pressure, r.Pressure)
		temp = append(temp, r.Temperature)
		humidity = append(humidity, r.Humidity)
		dew = append(dew, r.DewPoint)
		wind = append(wind, r.WindSpeed)
		if r.Time.UTC().Hour() == ReferenceHourUTC {
			ref = &rows[i]
		}
	}

	day := DailyObservation{
		Station:       station,
		Date:          date,
		Precipitation: sum(precip),
		Pressure:      mean(pressure),
		Temperature:   mean(temp),
		Humidity:      mean(humidity),
		DewPoint:      mean(dew),
		WindSpeed:     mean(wind),
	}
	if ref != nil {
		if ref.Temperature.Valid {
			day.Temperature = ref.Temperature
		}
		if ref.Humidity.Valid {
			day.Humidity = ref.Humidity
		}
		if ref.DewPoint.Valid {
			day.DewPoint = ref.DewPoint
		}
	}
	return day
}
