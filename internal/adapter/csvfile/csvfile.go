// Package csvfile reads and writes the comma-separated files exchanged by
// the batch stages and read by the dashboard.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

// Table is a parsed CSV file: a header index and its data rows.
type Table struct {
	Header map[string]int
	Rows   [][]string
}

// Write creates path (and its parent directories) with header followed by rows.
func Write(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := encode(f, header, rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func encode(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Read loads a whole CSV file whose first row is the header.
func Read(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrNoRows)
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	t := Table{Header: make(map[string]int, len(header))}
	for i, name := range header {
		t.Header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	t.Rows, err = r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// WriteLines writes one line per entry, used for failure reports.
func WriteLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
