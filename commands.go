package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/hivelab-data/soma.report/internal/sheet"
	"github.com/hivelab-data/soma.report/internal/soma"
)

// runInteractive drives a prompt loop over one loaded sheet. The processor
// gives generic table exploration; the analyzer runs the soma pipeline.
func runInteractive(analyzer *soma.Analyzer, processor *sheet.Processor) {
	fmt.Println("Interactive soma analysis. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			printHelp()

		case "locations":
			printLocations(analyzer)

		case "analyze":
			if len(args) == 0 {
				fmt.Println("usage: analyze <location> [hive]")
				continue
			}
			hive := len(args) > 1 && args[1] == "hive"
			result, err := analyzer.Analyze(args[0], soma.Options{
				SaveCSV:    true,
				CreatePlot: true,
				HiveFilter: hive,
			})
			if err != nil {
				fmt.Printf("analysis failed: %v\n", err)
				continue
			}
			if result.NoHiveColumn {
				fmt.Println("HIVE filter requested but no HIVE column exists; no data.")
				continue
			}
			result.WriteStats(os.Stdout)
			if result.CSVPath != "" {
				fmt.Printf("\nCSV: %s\nPlot: %s\n", result.CSVPath, result.PlotPath)
			}

		case "compare":
			if len(args) < 2 {
				fmt.Println("usage: compare <location> <location> [...]")
				continue
			}
			runCompare(analyzer, args, true)

		case "summary":
			s := processor.Summarize()
			fmt.Printf("Rows: %d, Columns: %d\n", s.TotalRows, s.TotalColumns)
			fmt.Printf("Columns: %s\n", strings.Join(s.Columns, ", "))
			fmt.Printf("Numeric: %s\n", strings.Join(s.NumericColumns, ", "))
			fmt.Printf("Date: %s\n", strings.Join(s.DateColumns, ", "))

		case "stats":
			if len(args) == 0 {
				fmt.Println("usage: stats <column>")
				continue
			}
			column := strings.Join(args, " ")
			cs, err := processor.Stats(column)
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			fmt.Printf("%s: %d non-null, %d null, %d unique\n", cs.Name, cs.NonNullCount, cs.NullCount, cs.UniqueCount)
			if cs.NumericCount > 0 {
				fmt.Printf("   mean=%.2f median=%.2f std=%.2f min=%.2f max=%.2f\n", cs.Mean, cs.Median, cs.StdDev, cs.Min, cs.Max)
			}
			for _, tv := range cs.TopValues {
				fmt.Printf("   %-30s %d\n", tv.Key, int(tv.Value))
			}

		case "search":
			if len(args) == 0 {
				fmt.Println("usage: search <term>")
				continue
			}
			matches := processor.Search(strings.Join(args, " "), nil)
			fmt.Printf("%d matching rows\n", matches.Len())

		case "group":
			if len(args) < 2 {
				fmt.Println("usage: group <column> <count|sum|mean|median|std> [value-column]")
				continue
			}
			valueColumn := ""
			if len(args) > 2 {
				valueColumn = strings.Join(args[2:], " ")
			}
			results, err := processor.GroupBy(args[0], sheet.AggFunc(args[1]), valueColumn)
			if err != nil {
				fmt.Printf("%v\n", err)
				continue
			}
			for _, gr := range results {
				fmt.Printf("   %-30s %.2f\n", gr.Key, gr.Value)
			}

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q; type 'help'\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  locations                 list soma locations by frequency
  analyze <loc> [hive]      run the soma analysis for a location (or "all")
  compare <loc> <loc> ...   aggregate several locations side by side
  summary                   describe the loaded sheet
  stats <column>            column statistics
  search <term>             count rows containing a term
  group <col> <fn> [vcol]   group-by aggregation (count, sum, mean, median, std)
  quit                      exit`)
}
