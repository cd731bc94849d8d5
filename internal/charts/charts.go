// Package charts renders trend datasets as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rosematcha/ciphermaniac/internal/trends"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Smooth     bool     // Smooth line (for line charts)
	MaxSeries  int      // Max archetype series to plot (0 = all)
	Colors     []string // Custom colors
}

// palette returns the configured colors, falling back to the default palette
// so a zero-value config still renders.
func (c ChartConfig) palette() []string {
	if len(c.Colors) == 0 {
		return DefaultChartConfig().Colors
	}
	return c.Colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Smooth:     true,
		MaxSeries:  10,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// RenderMetaShareChart renders the archetype meta-share dataset as a
// multi-series line chart, one line per archetype across the tournament
// window. Series come pre-sorted by average share, so MaxSeries keeps the
// most played archetypes.
func RenderMetaShareChart(dataset *trends.MetaShareDataset, config ChartConfig, outputPath string) error {
	if dataset == nil || len(dataset.Tournaments) == 0 {
		return fmt.Errorf("no tournament data to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
	)

	xLabels := make([]string, len(dataset.Tournaments))
	position := make(map[string]int, len(dataset.Tournaments))
	for i, t := range dataset.Tournaments {
		if t.Date.IsZero() {
			xLabels[i] = t.Name
		} else {
			xLabels[i] = t.Date.Format("2006-01-02")
		}
		position[t.ID] = i
	}
	line.SetXAxis(xLabels)

	colors := config.palette()
	series := dataset.Series
	if config.MaxSeries > 0 && len(series) > config.MaxSeries {
		series = series[:config.MaxSeries]
	}

	for i, s := range series {
		// Tournaments the archetype missed stay nil, which echarts
		// renders as a gap rather than a zero.
		yData := make([]opts.LineData, len(xLabels))
		for j := range yData {
			yData[j] = opts.LineData{Value: nil}
		}
		for _, point := range s.Timeline {
			if j, ok := position[point.TournamentID]; ok {
				yData[j] = opts.LineData{Value: point.Share}
			}
		}

		color := colors[i%len(colors)]
		line.AddSeries(s.DisplayName, yData).
			SetSeriesOptions(
				charts.WithLineChartOpts(opts.LineChart{
					Smooth: opts.Bool(config.Smooth),
				}),
				charts.WithLabelOpts(opts.Label{
					Show: opts.Bool(false),
				}),
				charts.WithItemStyleOpts(opts.ItemStyle{
					Color: color,
				}),
			)
	}

	return renderToFile(line, outputPath)
}

// RenderCardTrendChart renders rising and falling cards as a bar chart of
// early-window versus late-window share deltas.
func RenderCardTrendChart(dataset *trends.CardTrendDataset, config ChartConfig, outputPath string) error {
	if dataset == nil || (len(dataset.Rising) == 0 && len(dataset.Falling) == 0) {
		return fmt.Errorf("no card trend data to chart")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
	)

	entries := make([]trends.CardTrendEntry, 0, len(dataset.Rising)+len(dataset.Falling))
	entries = append(entries, dataset.Rising...)
	entries = append(entries, dataset.Falling...)

	colors := config.palette()
	xLabels := make([]string, len(entries))
	yData := make([]opts.BarData, len(entries))
	for i, e := range entries {
		xLabels[i] = e.Name
		color := colors[1%len(colors)]
		if e.Delta < 0 {
			color = colors[3%len(colors)]
		}
		yData[i] = opts.BarData{
			Value:     e.Delta,
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Share delta", yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	return renderToFile(bar, outputPath)
}

type renderer interface {
	Render(w io.Writer) error
}

func renderToFile(chart renderer, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := chart.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
