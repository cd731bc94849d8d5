package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rosematcha/ciphermaniac/internal/export"
	"github.com/rosematcha/ciphermaniac/internal/report"
)

func runTournaments(args []string) error {
	fs := flag.NewFlagSet("tournaments", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := common.newEngine(context.Background())
	if err != nil {
		return err
	}

	tournaments, err := eng.Tournaments()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAME\tPLAYERS\tDECKS")
	for _, t := range tournaments {
		date := "-"
		if !t.Date.IsZero() {
			date = t.Date.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", date, t.Name, t.Players, t.Decks)
	}
	return w.Flush()
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	ids := fs.String("ids", "", "Comma-separated tournament folders (default: all loaded)")
	top := fs.Int("top", 40, "Number of rows to print (0 = all)")
	csvPath := fs.String("csv", "", "Also write the full report to this CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := common.newEngine(context.Background())
	if err != nil {
		return err
	}

	var folders []string
	if *ids != "" {
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				folders = append(folders, id)
			}
		}
	} else {
		tournaments, err := eng.Tournaments()
		if err != nil {
			return err
		}
		for _, t := range tournaments {
			folders = append(folders, t.Folder)
		}
	}

	combined, err := eng.CombinedReport(folders)
	if err != nil {
		return err
	}

	fmt.Printf("Combined report over %d tournaments (%d decks)\n\n", len(folders), combined.DeckTotal)
	printReport(combined, *top)

	if *csvPath != "" {
		exporter := export.NewExporter(export.Options{
			Format:    export.FormatCSV,
			FilePath:  *csvPath,
			Overwrite: true,
		})
		if err := exporter.Export(export.ReportExport{Report: combined}); err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", *csvPath)
	}
	return nil
}

func printReport(rep *report.ParsedReport, top int) {
	items := rep.Items
	if top > 0 && len(items) > top {
		items = items[:top]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCARD\tSET\tNO.\tFOUND\tTOTAL\tPCT")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%.1f%%\n",
			it.Rank, it.Name, it.Set, it.Number, it.Found, it.Total, it.Pct)
	}
	w.Flush()
}

func runCard(args []string) error {
	fs := flag.NewFlagSet("card", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	uid := fs.String("uid", "", "Card UID (Name::SET::NUMBER) or bare name")
	tournament := fs.String("tournament", "", "Tournament folder")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" || *tournament == "" {
		return fmt.Errorf("both -uid and -tournament are required")
	}

	eng, err := common.newEngine(context.Background())
	if err != nil {
		return err
	}

	usage, err := eng.CardUsageFor(*tournament, *uid)
	if err != nil {
		return err
	}

	card := usage.Card
	fmt.Printf("%s in %s\n", card.Name, *tournament)
	fmt.Printf("  Found:   %d of %d decks (%.1f%%)\n", card.Found, card.Total, card.Pct)
	if len(usage.Variants) > 1 {
		fmt.Printf("  Prints:  %s\n", strings.Join(usage.Variants, ", "))
	}
	for _, d := range card.Dist {
		fmt.Printf("  %dx: %d decks (%.1f%%)\n", d.Copies, d.Players, d.Percent)
	}
	return nil
}

func runArchetype(args []string) error {
	fs := flag.NewFlagSet("archetype", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	uid := fs.String("uid", "", "Card UID (Name::SET::NUMBER) or bare name")
	tournament := fs.String("tournament", "", "Tournament folder")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" || *tournament == "" {
		return fmt.Errorf("both -uid and -tournament are required")
	}

	ctx := context.Background()
	eng, err := common.newEngine(ctx)
	if err != nil {
		return err
	}

	result, err := eng.ArchetypeFor(ctx, *tournament, *uid)
	if err != nil {
		return err
	}

	if result.Pick == nil {
		fmt.Printf("No archetype qualifies for %s in %s\n", *uid, *tournament)
		return nil
	}

	fmt.Printf("%s in %s: %s (%d of %d decks, %.1f%%)\n",
		*uid, *tournament, result.Pick.Base, result.Pick.Found, result.Pick.Total, result.Pick.Pct)

	if len(result.Candidates) > 1 {
		fmt.Println("\nAll candidates:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ARCHETYPE\tFOUND\tTOTAL\tPCT")
		for _, c := range result.Candidates {
			fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\n", c.Base, c.Found, c.Total, c.Pct)
		}
		w.Flush()
	}
	return nil
}
