package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rosematcha/ciphermaniac/internal/charts"
	"github.com/rosematcha/ciphermaniac/internal/engine"
	"github.com/rosematcha/ciphermaniac/internal/export"
	"github.com/rosematcha/ciphermaniac/internal/fetch"
	"github.com/rosematcha/ciphermaniac/internal/trends"
)

func runTrends(args []string) error {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	outDir := fs.String("out", "", "Write dataset JSON (and charts) to this directory")
	writeCSV := fs.Bool("csv", false, "Also write CSV files alongside the JSON")
	renderCharts := fs.Bool("charts", false, "Render HTML charts alongside the JSON")
	openBrowser := fs.Bool("open", false, "Open rendered charts in the browser")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*renderCharts || *writeCSV) && *outDir == "" {
		return fmt.Errorf("-charts and -csv require -out")
	}

	eng, err := common.newEngine(context.Background())
	if err != nil {
		return err
	}

	meta, err := eng.MetaShare()
	if err != nil {
		return err
	}
	cards, err := eng.CardTrends()
	if err != nil {
		return err
	}

	fmt.Printf("Meta share: %d archetypes over %d tournaments\n", len(meta.Series), len(meta.Tournaments))
	for i, s := range meta.Series {
		if i >= 10 {
			fmt.Printf("  ... and %d more\n", len(meta.Series)-i)
			break
		}
		fmt.Printf("  %-28s %5.1f%% avg over %d events\n", s.DisplayName, s.AvgShare, s.Appearances)
	}

	fmt.Printf("\nRising cards:\n")
	printTrendEntries(cards, true)
	fmt.Printf("\nFalling cards:\n")
	printTrendEntries(cards, false)

	if *outDir == "" {
		return nil
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeJSON(filepath.Join(*outDir, "meta-share.json"), meta); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(*outDir, "card-trends.json"), cards); err != nil {
		return err
	}
	fmt.Printf("\nDatasets written to %s\n", *outDir)

	if *writeCSV {
		metaExporter := export.NewExporter(export.Options{
			Format:    export.FormatCSV,
			FilePath:  filepath.Join(*outDir, "meta-share.csv"),
			Overwrite: true,
		})
		if err := metaExporter.Export(export.MetaShareExport{Dataset: meta}); err != nil {
			return err
		}
		cardsExporter := export.NewExporter(export.Options{
			Format:    export.FormatCSV,
			FilePath:  filepath.Join(*outDir, "card-trends.csv"),
			Overwrite: true,
		})
		if err := cardsExporter.Export(export.CardTrendExport{Dataset: cards}); err != nil {
			return err
		}
	}

	if !*renderCharts {
		return nil
	}

	chartConfig := charts.DefaultChartConfig()
	chartConfig.Title = "Archetype meta share"
	metaPath := filepath.Join(*outDir, "meta-share.html")
	if err := charts.RenderMetaShareChart(meta, chartConfig, metaPath); err != nil {
		return err
	}

	chartConfig.Title = "Rising and falling cards"
	cardsPath := filepath.Join(*outDir, "card-trends.html")
	if err := charts.RenderCardTrendChart(cards, chartConfig, cardsPath); err != nil {
		return err
	}
	fmt.Printf("Charts written to %s\n", *outDir)

	if *openBrowser {
		if err := charts.OpenInBrowser(metaPath); err != nil {
			return err
		}
	}
	return nil
}

func printTrendEntries(dataset *trends.CardTrendDataset, rising bool) {
	entries := dataset.Falling
	if rising {
		entries = dataset.Rising
	}
	if len(entries) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, e := range entries {
		if i >= 10 {
			break
		}
		fmt.Printf("  %-36s %+5.1f%% (%.1f%% -> %.1f%%)\n", e.Name, e.Delta, e.StartShare, e.EndShare)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// runWatch watches a local report directory and rebuilds trend datasets
// whenever report files change.
func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	outDir := fs.String("out", "", "Write refreshed dataset JSON to this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if common.localRoot == "" {
		return fmt.Errorf("watch requires -local")
	}

	ctx := context.Background()
	eng, err := common.newEngine(ctx)
	if err != nil {
		return err
	}
	eng.OnRefresh(func(event engine.RefreshEvent) {
		fmt.Printf("Reloaded %d tournaments (%d decks)\n", event.Tournaments, event.Decks)
		if *outDir == "" {
			return
		}
		if meta, err := eng.MetaShare(); err == nil {
			if err := writeJSON(filepath.Join(*outDir, "meta-share.json"), meta); err != nil {
				fmt.Printf("Warning: %v\n", err)
			}
		}
		if cards, err := eng.CardTrends(); err == nil {
			if err := writeJSON(filepath.Join(*outDir, "card-trends.json"), cards); err != nil {
				fmt.Printf("Warning: %v\n", err)
			}
		}
	})

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", common.localRoot)
	return fetch.Watch(ctx, common.localRoot, func(folder string) {
		if _, err := eng.Refresh(ctx); err != nil {
			fmt.Printf("Refresh failed: %v\n", err)
		}
	})
}
