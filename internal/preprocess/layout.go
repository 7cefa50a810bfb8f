package preprocess

import "path/filepath"

// Layout resolves the raw inputs and preprocessed outputs under a data dir.
type Layout struct {
	DataDir string
}

func (l Layout) RawINMET() string {
	return filepath.Join(l.DataDir, "raw_data", "INMET")
}

func (l Layout) RawINPE() string {
	return filepath.Join(l.DataDir, "raw_data", "INPE_hotspots_daily")
}

func (l Layout) preprocessed(parts ...string) string {
	return filepath.Join(append([]string{l.DataDir, "preprocessed_data"}, parts...)...)
}

// StationDaily is the daily series of one station.
func (l Layout) StationDaily(code string) string {
	return l.preprocessed("INMET", "merged_"+code+".csv")
}

// StationFailures lists the files of a station that could not be parsed.
func (l Layout) StationFailures(code string) string {
	return l.preprocessed("INMET", "merged_"+code+"_failed_files.txt")
}

func (l Layout) Stations() string {
	return l.preprocessed("INMET", "stations_info.csv")
}

// MonthHotspots is the daily hotspot file of one YYYYMM month.
func (l Layout) MonthHotspots(month string) string {
	return l.preprocessed("INPE_hotspots_daily", "per_month", "inpe_hotspots_daily_"+month+".csv")
}

func (l Layout) MonthFailures() string {
	return l.preprocessed("INPE_hotspots_daily", "inpe_hotspots_daily_failed_files.txt")
}

func (l Layout) Hotspots() string {
	return l.preprocessed("INPE_hotspots_daily", "inpe_hotspot_daily_data.csv")
}

// Merged is the observed history with hotspots and indices.
func (l Layout) Merged() string {
	return l.preprocessed("merged", "merged_data.csv")
}

func (l Layout) Predictions() string {
	return l.preprocessed("predictions_7_days.csv")
}

// Combined is the dashboard dataset of history plus predictions.
func (l Layout) Combined() string {
	return l.preprocessed("predictions_combined_with_risks.csv")
}

func (l Layout) CombinedXLSX() string {
	return l.preprocessed("predictions_combined_with_risks.xlsx")
}
