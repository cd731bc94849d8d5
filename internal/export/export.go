// Package export writes reports and trend datasets to CSV or JSON files for
// spreadsheet analysis and downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV represents CSV export format.
	FormatCSV Format = "csv"
	// FormatJSON represents JSON export format.
	FormatJSON Format = "json"
)

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string
	PrettyJSON bool
	Overwrite  bool
}

// Exporter handles exporting data to various formats.
type Exporter struct {
	opts Options
}

// NewExporter creates a new Exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// rows is implemented by every exportable dataset: a header line plus one
// string slice per record.
type rows interface {
	Header() []string
	Rows() [][]string
}

// Export writes the data to the configured file. CSV requires the data to
// implement row conversion; JSON accepts anything marshalable.
func (e *Exporter) Export(data any) error {
	w, err := e.openFile()
	if err != nil {
		return err
	}
	defer w.Close()

	switch e.opts.Format {
	case FormatCSV:
		tabular, ok := data.(rows)
		if !ok {
			return fmt.Errorf("%T cannot be exported as CSV", data)
		}
		return writeCSV(w, tabular)
	case FormatJSON:
		return e.writeJSON(w, data)
	default:
		return fmt.Errorf("unsupported export format: %s", e.opts.Format)
	}
}

func (e *Exporter) openFile() (*os.File, error) {
	if e.opts.FilePath == "" {
		return nil, fmt.Errorf("no output file path configured")
	}

	if !e.opts.Overwrite {
		if _, err := os.Stat(e.opts.FilePath); err == nil {
			return nil, fmt.Errorf("file already exists: %s", e.opts.FilePath)
		}
	}

	if dir := filepath.Dir(e.opts.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(e.opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func writeCSV(w io.Writer, data rows) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range data.Rows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (e *Exporter) writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if e.opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
