package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rosematcha/ciphermaniac/internal/report"
	"github.com/rosematcha/ciphermaniac/internal/trends"
)

func sampleReport() *report.ParsedReport {
	return &report.ParsedReport{
		DeckTotal: 100,
		Items: []report.CardUsageItem{
			{Rank: 1, Name: "Iono", Set: "PAL", Number: "185", UID: "Iono::PAL::185",
				Found: 70, Total: 100, Pct: 70},
			{Rank: 2, Name: "Ultra Ball", Found: 65, Total: 100, Pct: 65},
		},
	}
}

func TestExportReportCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.csv")

	exporter := NewExporter(Options{Format: FormatCSV, FilePath: out})
	if err := exporter.Export(ReportExport{Report: sampleReport()}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "rank,name,set,number,uid,found,total,pct" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Iono::PAL::185") {
		t.Errorf("first row missing UID: %s", lines[1])
	}
	if !strings.Contains(lines[1], "70.00") {
		t.Errorf("first row missing pct: %s", lines[1])
	}
}

func TestExportReportJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")

	exporter := NewExporter(Options{Format: FormatJSON, FilePath: out, PrettyJSON: true})
	if err := exporter.Export(sampleReport()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), `"deckTotal": 100`) {
		t.Errorf("JSON export missing deck total: %s", data)
	}
}

func TestExportRefusesOverwrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(out, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	exporter := NewExporter(Options{Format: FormatCSV, FilePath: out})
	if err := exporter.Export(ReportExport{Report: sampleReport()}); err == nil {
		t.Error("expected error when file exists without Overwrite")
	}

	exporter = NewExporter(Options{Format: FormatCSV, FilePath: out, Overwrite: true})
	if err := exporter.Export(ReportExport{Report: sampleReport()}); err != nil {
		t.Errorf("Export() with Overwrite error = %v", err)
	}
}

func TestExportCSVRequiresTabularData(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.csv")

	exporter := NewExporter(Options{Format: FormatCSV, FilePath: out})
	if err := exporter.Export(sampleReport()); err == nil {
		t.Error("expected error for non-tabular CSV export")
	}
}

func TestMetaShareExportRows(t *testing.T) {
	date := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	dataset := &trends.MetaShareDataset{
		Series: []trends.MetaShareSeries{
			{
				DisplayName: "Gardevoir ex",
				Timeline: []trends.SharePoint{
					{TournamentID: "t1", Date: date, Share: 21.5},
				},
			},
		},
	}

	rows := MetaShareExport{Dataset: dataset}.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	want := []string{"Gardevoir ex", "t1", "2025-06-14", "21.50"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Errorf("row[%d] = %q, want %q", i, rows[0][i], cell)
		}
	}
}

func TestCardTrendExportRows(t *testing.T) {
	dataset := &trends.CardTrendDataset{
		Rising:  []trends.CardTrendEntry{{Name: "Iono", UID: "Iono::PAL::185", Appearances: 5, StartShare: 5, EndShare: 15, Delta: 10}},
		Falling: []trends.CardTrendEntry{{Name: "Judge", UID: "Judge::SVI::176", Appearances: 4, StartShare: 20, EndShare: 8, Delta: -12}},
	}

	rows := CardTrendExport{Dataset: dataset}.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "rising" || rows[1][0] != "falling" {
		t.Errorf("unexpected direction ordering: %v", rows)
	}
	if rows[1][6] != "-12.00" {
		t.Errorf("falling delta = %q, want -12.00", rows[1][6])
	}
}
