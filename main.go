// Command soma.report fetches a neuron reconstruction sheet from Smartsheet
// (or a local snapshot) and runs soma-location analyses over it: summary
// tables, CSV exports, stacked bar charts and an optional HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hivelab-data/soma.report/api"
	"github.com/hivelab-data/soma.report/internal/config"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/sheet"
	"github.com/hivelab-data/soma.report/internal/smartsheet"
	"github.com/hivelab-data/soma.report/internal/snapshot"
	"github.com/hivelab-data/soma.report/internal/soma"
	"github.com/hivelab-data/soma.report/internal/version"
)

var (
	sheetID       = flag.String("sheet-id", "", "Smartsheet sheet ID (overrides DEFAULT_SHEET_ID)")
	sheetName     = flag.String("sheet-name", "", "Smartsheet sheet name (overrides DEFAULT_SHEET_NAME)")
	location      = flag.String("location", "all", "soma location token to analyze, or \"all\"")
	hiveFilter    = flag.Bool("hive", false, "only include HIVE-marked neurons")
	plotFormat    = flag.String("format", "", "chart format: svg, png or html (default from PLOT_FORMAT)")
	noCSV         = flag.Bool("no-csv", false, "skip CSV export")
	noPlot        = flag.Bool("no-plot", false, "skip chart rendering")
	compareList   = flag.String("compare", "", "comma-separated locations to compare")
	listLocations = flag.Bool("locations", false, "list available soma locations and exit")
	outputDir     = flag.String("output-dir", "", "directory for CSV and chart output (overrides OUTPUT_DIR)")
	serve         = flag.Bool("serve", false, "run the HTTP analysis API")
	listen        = flag.String("listen", "", "listen address for -serve (overrides LISTEN)")
	offline       = flag.Bool("offline", false, "analyze the last cached snapshot instead of fetching")
	interactive   = flag.Bool("interactive", false, "interactive prompt mode")
	showVersion   = flag.Bool("version", false, "print version and exit")
)

// snapshotsToKeep bounds how many historical snapshots are retained per
// sheet.
const snapshotsToKeep = 5

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("soma.report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.FromEnv()
	if *sheetID != "" {
		cfg.SheetID = *sheetID
	}
	if *sheetName != "" {
		cfg.SheetName = *sheetName
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *plotFormat != "" {
		cfg.PlotFormat = *plotFormat
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	if err := cfg.Validate(!*offline); err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		log.Fatalf("%v", err)
	}

	table, err := loadTable(cfg, *offline)
	if err != nil {
		log.Fatalf("failed to load sheet: %v", err)
	}
	log.Printf("loaded sheet: %d rows, %d columns", table.Len(), len(table.Columns))

	analyzer, err := soma.NewAnalyzer(table, cfg)
	if err != nil {
		log.Fatalf("failed to initialize analyzer: %v", err)
	}

	switch {
	case *serve:
		server := api.NewServer(analyzer, cfg)
		log.Printf("listening on %s", cfg.Listen)
		log.Fatal(http.ListenAndServe(cfg.Listen, server.ServeMux()))

	case *listLocations:
		printLocations(analyzer)

	case *compareList != "":
		runCompare(analyzer, strings.Split(*compareList, ","), !*noCSV)

	case *interactive:
		runInteractive(analyzer, sheet.NewProcessor(table))

	default:
		result, err := analyzer.Analyze(*location, soma.Options{
			SaveCSV:    !*noCSV,
			CreatePlot: !*noPlot,
			Format:     *plotFormat,
			HiveFilter: *hiveFilter,
		})
		if err != nil {
			log.Fatalf("analysis failed: %v", err)
		}
		if result.NoHiveColumn {
			fmt.Println("HIVE filter requested but no HIVE column exists; no data.")
			return
		}
		result.WriteStats(os.Stdout)
		if result.CSVPath != "" {
			fmt.Printf("\nCSV: %s\n", result.CSVPath)
		}
		if result.PlotPath != "" {
			fmt.Printf("Plot: %s\n", result.PlotPath)
		}
	}
}

// loadTable fetches the configured sheet from the Smartsheet API and caches
// a snapshot, or loads the latest snapshot in offline mode.
func loadTable(cfg *config.Config, useSnapshot bool) (*sheet.Table, error) {
	ctx := context.Background()

	store, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if useSnapshot {
		table, fetchedAt, err := store.Latest(ctx, cfg.SheetName)
		if err != nil {
			return nil, err
		}
		log.Printf("using snapshot of %q from %s", cfg.SheetName, fetchedAt.Format(time.RFC3339))
		return table, nil
	}

	client, err := smartsheet.NewClient(cfg.AccessToken)
	if err != nil {
		return nil, err
	}

	var apiSheet *smartsheet.Sheet
	if cfg.SheetID != "" {
		id, err := strconv.ParseInt(cfg.SheetID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sheet ID %q: %w", cfg.SheetID, err)
		}
		apiSheet, err = client.SheetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	} else {
		apiSheet, err = client.SheetByName(ctx, cfg.SheetName)
		if err != nil {
			return nil, err
		}
	}

	table := apiSheet.Table()
	if err := store.Save(ctx, cfg.SheetName, table); err != nil {
		monitoring.Warnf("failed to cache snapshot: %v", err)
	} else if err := store.Prune(ctx, cfg.SheetName, snapshotsToKeep); err != nil {
		monitoring.Warnf("failed to prune snapshots: %v", err)
	}
	return table, nil
}

func printLocations(analyzer *soma.Analyzer) {
	locations := analyzer.AvailableLocations()
	if len(locations) == 0 {
		fmt.Println("No soma locations found in data.")
		return
	}
	fmt.Printf("Available soma locations (%d):\n", len(locations))
	for _, lc := range locations {
		fmt.Printf("   %-20s %d neurons\n", lc.Location, lc.Count)
	}
}

func runCompare(analyzer *soma.Analyzer, locations []string, saveCSV bool) {
	rows := analyzer.Compare(locations)
	if len(rows) == 0 {
		fmt.Println("No data for any of the requested locations.")
		return
	}
	fmt.Printf("%-15s %8s %8s  %s\n", "Location", "Samples", "Neurons", "Completed")
	for i := range rows {
		r := &rows[i]
		fmt.Printf("%-15s %8d %8d  %d\n", r.Location, r.TotalSamples, r.TotalNeurons, r.Completed)
	}
	if saveCSV {
		path, err := analyzer.WriteComparisonCSV(rows)
		if err != nil {
			log.Fatalf("failed to save comparison CSV: %v", err)
		}
		fmt.Printf("\nComparison CSV: %s\n", path)
	}
}
