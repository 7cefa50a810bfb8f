// Package xlsx writes the dashboard dataset as an Excel workbook.
package xlsx

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// Sheet is the worksheet holding the dataset.
const Sheet = "riscos"

var textColumns = map[string]bool{
	"codigo_estacao": true,
	"data":           true,
	"bioma":          true,
	"regiao":         true,
	"uf":             true,
	"estacao":        true,
	"angstrom_risk":  true,
	"telicyn_risk":   true,
	"nesterov_risk":  true,
	"foco_incendio":  true,
}

// Write saves records to path, one row per record under a header row.
// Numeric columns are stored as numbers and missing values as empty cells.
func Write(path string, records []domain.RiskRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(Sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, len(domain.Columns))
	for i, c := range domain.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowValues(r)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func rowValues(r domain.RiskRecord) []any {
	values := r.Strings()
	out := make([]any, len(values))
	for i, v := range values {
		if v == "" {
			out[i] = nil
			continue
		}
		if textColumns[domain.Columns[i]] {
			out[i] = v
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			out[i] = v
			continue
		}
		out[i] = n
	}
	return out
}
