package export

import (
	"strconv"

	"github.com/rosematcha/ciphermaniac/internal/report"
	"github.com/rosematcha/ciphermaniac/internal/trends"
)

// ReportExport wraps a usage report for export.
type ReportExport struct {
	Report *report.ParsedReport
}

// Header returns the CSV column names.
func (r ReportExport) Header() []string {
	return []string{"rank", "name", "set", "number", "uid", "found", "total", "pct"}
}

// Rows converts report items to CSV rows.
func (r ReportExport) Rows() [][]string {
	out := make([][]string, 0, len(r.Report.Items))
	for _, it := range r.Report.Items {
		out = append(out, []string{
			strconv.Itoa(it.Rank),
			it.Name,
			it.Set,
			it.Number,
			it.UID,
			strconv.Itoa(it.Found),
			strconv.Itoa(it.Total),
			formatFloat(it.Pct),
		})
	}
	return out
}

// MetaShareExport wraps a meta-share dataset for export, one row per
// archetype per tournament.
type MetaShareExport struct {
	Dataset *trends.MetaShareDataset
}

// Header returns the CSV column names.
func (m MetaShareExport) Header() []string {
	return []string{"archetype", "tournament", "date", "share"}
}

// Rows flattens every series timeline.
func (m MetaShareExport) Rows() [][]string {
	var out [][]string
	for _, s := range m.Dataset.Series {
		for _, p := range s.Timeline {
			date := ""
			if !p.Date.IsZero() {
				date = p.Date.Format("2006-01-02")
			}
			out = append(out, []string{
				s.DisplayName,
				p.TournamentID,
				date,
				formatFloat(p.Share),
			})
		}
	}
	return out
}

// CardTrendExport wraps a card trend dataset for export. Rising entries come
// first, then falling.
type CardTrendExport struct {
	Dataset *trends.CardTrendDataset
}

// Header returns the CSV column names.
func (c CardTrendExport) Header() []string {
	return []string{"direction", "name", "uid", "appearances", "start_share", "end_share", "delta"}
}

// Rows converts trend entries to CSV rows.
func (c CardTrendExport) Rows() [][]string {
	out := make([][]string, 0, len(c.Dataset.Rising)+len(c.Dataset.Falling))
	emit := func(direction string, entries []trends.CardTrendEntry) {
		for _, e := range entries {
			out = append(out, []string{
				direction,
				e.Name,
				e.UID,
				strconv.Itoa(e.Appearances),
				formatFloat(e.StartShare),
				formatFloat(e.EndShare),
				formatFloat(e.Delta),
			})
		}
	}
	emit("rising", c.Dataset.Rising)
	emit("falling", c.Dataset.Falling)
	return out
}
