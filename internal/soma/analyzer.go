// Package soma implements the soma-location analysis pipeline over neuron
// reconstruction sheets: filter rows by anatomical compartment and HIVE
// marker, group them by the sample each neuron came from, tally per-status
// counts, and emit summary tables, CSV exports and stacked bar charts.
package soma

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/hivelab-data/soma.report/internal/chart"
	"github.com/hivelab-data/soma.report/internal/config"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/sheet"
	"github.com/hivelab-data/soma.report/internal/timeutil"
)

// Column names the analyzer expects in the loaded sheet.
const (
	ColID                 = "ID"
	ColCCFCompartment     = "CCF Soma Compartment"
	ColManualCompartment  = "Manual Estimated Soma Compartment"
	ColStatus             = "Status 1"
	ColGenotype           = "Genotype"
	ColRegistrationStatus = "Registered?"
)

// RequiredColumns is the minimal schema for a full analysis. Missing columns
// degrade the result rather than failing it.
var RequiredColumns = []string{
	ColID,
	ColCCFCompartment,
	ColManualCompartment,
	ColStatus,
	ColGenotype,
	ColRegistrationStatus,
}

// LocationAll is the sentinel token that disables location filtering.
const LocationAll = "all"

// ErrNoHiveColumn reports that a HIVE filter was requested but no column in
// the sheet qualifies as a HIVE marker. The filter fails closed in that
// case.
var ErrNoHiveColumn = errors.New("no HIVE column found in data")

// Analyzer runs soma-location analyses over one loaded sheet. The sheet is
// read-only; each call builds its own intermediate state.
type Analyzer struct {
	table    *sheet.Table
	cfg      *config.Config
	renderer *chart.Renderer
	clock    timeutil.Clock
}

// NewAnalyzer wraps a loaded sheet. An empty sheet is rejected; missing
// required columns are reported as warnings and the analysis degrades.
func NewAnalyzer(t *sheet.Table, cfg *config.Config) (*Analyzer, error) {
	if t == nil || t.Empty() {
		return nil, errors.New("input table cannot be empty")
	}
	if missing := t.MissingColumns(RequiredColumns); len(missing) > 0 {
		monitoring.Warnf("analysis may be incomplete due to missing columns: %v", missing)
	}
	return &Analyzer{
		table:    t,
		cfg:      cfg,
		renderer: chart.NewRenderer(cfg.OutputDir, cfg.MaxSamplesDisplay, cfg.ChartWidth, cfg.ChartHeight),
		clock:    timeutil.RealClock{},
	}, nil
}

// SetClock overrides the timestamp source for artifact filenames. Used by
// tests.
func (a *Analyzer) SetClock(c timeutil.Clock) { a.clock = c }

// sampleIDDash matches the digits following a dash, e.g. "N030-657676".
var (
	sampleIDDash   = regexp.MustCompile(`-(\d+)`)
	sampleIDDigits = regexp.MustCompile(`\d+`)
)

// ExtractSampleID derives the sample grouping key from an ID cell: the
// digits after the last dash-digit boundary, else the first run of digits,
// else the trimmed raw text. Null cells yield "".
func ExtractSampleID(id sheet.Value) string {
	if id.IsNull() {
		return ""
	}
	text := id.Text()
	if ms := sampleIDDash.FindAllStringSubmatch(text, -1); len(ms) > 0 {
		return ms[len(ms)-1][1]
	}
	if m := sampleIDDigits.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// HiveResolution records how (or whether) the HIVE marker column was found.
type HiveResolution int

const (
	// HiveNotFound means no column qualifies; the HIVE filter fails closed.
	HiveNotFound HiveResolution = iota
	// HiveByName means a column name contains "hive".
	HiveByName
	// HiveByBoolValues means a column was picked because it holds at least
	// one boolean true value.
	HiveByBoolValues
)

// ResolveHiveColumn finds the HIVE marker column using an ordered strategy:
// a column whose name contains "hive" wins, then the first column containing
// any boolean true value, then not-found.
func (a *Analyzer) ResolveHiveColumn() (string, HiveResolution) {
	for _, col := range a.table.Columns {
		if strings.Contains(strings.ToLower(col), "hive") {
			return col, HiveByName
		}
	}
	for _, col := range a.table.Columns {
		for _, r := range a.table.Rows {
			if v := r.Get(col); v.Kind() == sheet.KindBool && v.True() {
				return col, HiveByBoolValues
			}
		}
	}
	return "", HiveNotFound
}

// FilterByLocation keeps the rows whose soma compartment matches the
// location token, then optionally restricts to HIVE-marked rows. The token
// "all" (case-insensitive) keeps every row. Matching is a case-insensitive
// substring test across both compartment columns. When the HIVE filter is
// requested and no HIVE column exists, an empty table and ErrNoHiveColumn
// are returned.
func (a *Analyzer) FilterByLocation(location string, hiveFilter bool) (*sheet.Table, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("location must not be empty")
	}

	var filtered *sheet.Table
	if strings.EqualFold(location, LocationAll) {
		filtered = a.table.Head(a.table.Len())
		monitoring.Logf("including all neurons regardless of soma location")
	} else {
		cond := sheet.Contains{Substring: location}
		filtered = a.table.Select(func(r sheet.Row) bool {
			return cond.Match(r.Get(ColCCFCompartment)) || cond.Match(r.Get(ColManualCompartment))
		})
		monitoring.Logf("soma location filter %q found %d neurons", location, filtered.Len())
	}

	if hiveFilter {
		hiveCol, res := a.ResolveHiveColumn()
		if res == HiveNotFound {
			monitoring.Errorf("HIVE filter requested but no HIVE column found")
			return sheet.NewTable(a.table.Columns), ErrNoHiveColumn
		}
		before := filtered.Len()
		filtered = filtered.Select(func(r sheet.Row) bool {
			return r.Get(hiveCol).True()
		})
		monitoring.Logf("HIVE filter on column %q reduced %d to %d neurons", hiveCol, before, filtered.Len())
	}

	if filtered.Empty() {
		monitoring.Warnf("no neurons found matching the specified criteria")
	}
	return filtered, nil
}

// SummaryRow is the per-sample analysis output: first-seen genotype and
// registration status plus the per-status neuron counts.
type SummaryRow struct {
	SampleID           string
	Genotype           string
	Completed          int
	PendingReview      int
	Hold               int
	Untraceable        int
	InProgress         int
	Incomplete         int
	Other              int
	RegistrationStatus string
	TotalNeurons       int
	HiveFilter         bool
}

// Count returns the row's tally for a status bucket.
func (r *SummaryRow) Count(bucket string) int {
	switch bucket {
	case BucketCompleted:
		return r.Completed
	case BucketPendingReview:
		return r.PendingReview
	case BucketHold:
		return r.Hold
	case BucketUntraceable:
		return r.Untraceable
	case BucketInProgress:
		return r.InProgress
	case BucketIncomplete:
		return r.Incomplete
	case BucketOther:
		return r.Other
	default:
		return 0
	}
}

func (r *SummaryRow) bump(bucket string) {
	switch bucket {
	case BucketCompleted:
		r.Completed++
	case BucketPendingReview:
		r.PendingReview++
	case BucketHold:
		r.Hold++
	case BucketUntraceable:
		r.Untraceable++
	case BucketInProgress:
		r.InProgress++
	case BucketIncomplete:
		r.Incomplete++
	default:
		r.Other++
	}
}

// Summarize groups the filtered rows by sample ID in first-seen order and
// tallies each row's status text against the canonical taxonomy. Rows whose
// ID yields no sample ID are dropped here (they still counted during
// filtering). Genotype and registration status are taken from the first row
// of each group.
func (a *Analyzer) Summarize(filtered *sheet.Table, hiveFilter bool) []SummaryRow {
	var order []string
	groups := make(map[string]*SummaryRow)

	for _, r := range filtered.Rows {
		sampleID := ExtractSampleID(r.Get(ColID))
		if sampleID == "" {
			continue
		}
		row, ok := groups[sampleID]
		if !ok {
			row = &SummaryRow{
				SampleID:           sampleID,
				Genotype:           firstText(r.Get(ColGenotype)),
				RegistrationStatus: firstText(r.Get(ColRegistrationStatus)),
				HiveFilter:         hiveFilter,
			}
			groups[sampleID] = row
			order = append(order, sampleID)
		}
		status := r.Get(ColStatus).Text()
		if bucket, ok := statusBucket[status]; ok {
			row.bump(bucket)
		} else {
			row.bump(BucketOther)
		}
		row.TotalNeurons++
	}

	out := make([]SummaryRow, len(order))
	for i, id := range order {
		out[i] = *groups[id]
	}
	return out
}

func firstText(v sheet.Value) string {
	if v.IsNull() {
		return "Unknown"
	}
	return v.Text()
}

// Options controls one Analyze call.
type Options struct {
	SaveCSV    bool
	CreatePlot bool
	// Format is the requested chart format; unsupported values fall back to
	// PNG. Empty uses the configured default.
	Format     string
	HiveFilter bool
}

// Result is the outcome of one Analyze call. An empty Summary with a nil
// error is a legitimate no-data result; NoHiveColumn distinguishes the
// fail-closed HIVE case from a zero-match query.
type Result struct {
	Location     string // display form, e.g. "VM" or "ALL_LOCATIONS"
	HiveFilter   bool
	Summary      []SummaryRow
	CSVPath      string
	PlotPath     string
	NoHiveColumn bool
}

// Empty reports whether the analysis produced no summary rows.
func (r *Result) Empty() bool { return len(r.Summary) == 0 }

// TotalNeurons sums the neuron counts across all samples.
func (r *Result) TotalNeurons() int {
	total := 0
	for i := range r.Summary {
		total += r.Summary[i].TotalNeurons
	}
	return total
}

// locationDisplay renders the location token for titles ("ALL_LOCATIONS" or
// uppercased), and locationFileToken the short form used in filenames.
func locationDisplay(location string) string {
	if strings.EqualFold(location, LocationAll) {
		return "ALL_LOCATIONS"
	}
	return strings.ToUpper(location)
}

func locationFileToken(location string) string {
	if strings.EqualFold(location, LocationAll) {
		return "ALL"
	}
	return strings.ToUpper(location)
}

// Analyze runs the full pipeline for one location token: filter, summarize,
// and optionally export CSV and a stacked bar chart. File outputs carry the
// location token, an optional _HIVE suffix and a second-resolution timestamp
// so repeated runs never collide.
func (a *Analyzer) Analyze(location string, opts Options) (*Result, error) {
	runID := uuid.NewString()[:8]
	display := locationDisplay(location)
	hiveSuffix := ""
	if opts.HiveFilter {
		hiveSuffix = "_HIVE"
	}
	monitoring.Logf("[%s] starting soma location analysis: %s%s", runID, display, hiveSuffix)

	filtered, err := a.FilterByLocation(location, opts.HiveFilter)
	if err != nil {
		if errors.Is(err, ErrNoHiveColumn) {
			// Fail closed: empty result, distinguishable from a zero-match
			// query via NoHiveColumn.
			return &Result{Location: display, HiveFilter: opts.HiveFilter, NoHiveColumn: true}, nil
		}
		return nil, err
	}

	result := &Result{Location: display, HiveFilter: opts.HiveFilter}
	if filtered.Empty() {
		monitoring.Logf("[%s] no data for %s%s", runID, display, hiveSuffix)
		return result, nil
	}

	result.Summary = a.Summarize(filtered, opts.HiveFilter)
	if result.Empty() {
		monitoring.Logf("[%s] no parseable sample IDs for %s%s", runID, display, hiveSuffix)
		return result, nil
	}

	timestamp := a.clock.Now().Format("20060102_150405")
	fileToken := locationFileToken(location)

	if opts.SaveCSV {
		name := fmt.Sprintf("soma_analysis_%s%s_%s.csv", fileToken, hiveSuffix, timestamp)
		path, err := a.writeSummaryCSV(result.Summary, name)
		if err != nil {
			return nil, fmt.Errorf("save csv: %w", err)
		}
		result.CSVPath = path
		monitoring.Logf("[%s] CSV saved: %s", runID, path)
	}

	if opts.CreatePlot {
		format := opts.Format
		if format == "" {
			format = a.cfg.PlotFormat
		}
		base := fmt.Sprintf("soma_analysis_plot_%s%s_%s", fileToken, hiveSuffix, timestamp)
		path, err := a.renderer.RenderStackedBar(a.ChartData(result), base, chart.Normalize(format))
		if err != nil {
			return nil, fmt.Errorf("create plot: %w", err)
		}
		result.PlotPath = path
		monitoring.Logf("[%s] plot saved: %s", runID, path)
	}

	monitoring.Logf("[%s] analysis completed: %d samples, %d neurons", runID, len(result.Summary), result.TotalNeurons())
	return result, nil
}

// ChartData shapes a summary into the renderer input: one bar per sample,
// one stacked series per status bucket, fixed colors and order.
func (a *Analyzer) ChartData(result *Result) chart.StackedBarData {
	labels := make([]string, len(result.Summary))
	for i := range result.Summary {
		labels[i] = result.Summary[i].SampleID
	}
	series := make([]chart.Series, len(StatusBuckets))
	for i, bucket := range StatusBuckets {
		values := make([]float64, len(result.Summary))
		for j := range result.Summary {
			values[j] = float64(result.Summary[j].Count(bucket))
		}
		series[i] = chart.Series{Name: bucketLabel(bucket), Color: BucketColors[bucket], Values: values}
	}
	title := "Neuron Reconstruction Status by Sample - " + result.Location
	if result.HiveFilter {
		title += " (HIVE only)"
	}
	return chart.StackedBarData{
		Title:  title,
		XLabel: "Sample ID",
		YLabel: "Number of Neurons",
		Labels: labels,
		Series: series,
	}
}

// LocationCount pairs a compartment label with how often it occurs.
type LocationCount struct {
	Location string
	Count    int
}

// AvailableLocations tallies every non-null compartment cell across both
// location columns, descending by count. A row with both columns set
// contributes twice.
func (a *Analyzer) AvailableLocations() []LocationCount {
	counts := make(map[string]int)
	var order []string
	for _, col := range []string{ColCCFCompartment, ColManualCompartment} {
		if !a.table.HasColumn(col) {
			continue
		}
		for _, r := range a.table.Rows {
			v := r.Get(col)
			if v.IsNull() {
				continue
			}
			loc := v.Text()
			if loc == "" {
				continue
			}
			if _, seen := counts[loc]; !seen {
				order = append(order, loc)
			}
			counts[loc]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	out := make([]LocationCount, len(order))
	for i, loc := range order {
		out[i] = LocationCount{Location: loc, Count: counts[loc]}
	}
	return out
}

// ComparisonRow aggregates one location's analysis: sample and neuron totals
// plus the summed per-status counts.
type ComparisonRow struct {
	Location      string
	TotalSamples  int
	TotalNeurons  int
	Completed     int
	PendingReview int
	Hold          int
	Untraceable   int
	InProgress    int
	Incomplete    int
	Other         int
}

// Count returns the aggregate tally for a status bucket.
func (r *ComparisonRow) Count(bucket string) int {
	switch bucket {
	case BucketCompleted:
		return r.Completed
	case BucketPendingReview:
		return r.PendingReview
	case BucketHold:
		return r.Hold
	case BucketUntraceable:
		return r.Untraceable
	case BucketInProgress:
		return r.InProgress
	case BucketIncomplete:
		return r.Incomplete
	case BucketOther:
		return r.Other
	default:
		return 0
	}
}

// Compare runs the analysis pipeline once per location without writing
// intermediate files and aggregates each location's totals. A failing or
// empty location is logged and omitted; it never aborts the others.
func (a *Analyzer) Compare(locations []string) []ComparisonRow {
	var out []ComparisonRow
	for _, location := range locations {
		result, err := a.Analyze(location, Options{})
		if err != nil {
			monitoring.Errorf("failed to analyze location %q: %v", location, err)
			continue
		}
		if result.Empty() {
			monitoring.Warnf("no data for location %q, omitting from comparison", location)
			continue
		}
		row := ComparisonRow{
			Location:     location,
			TotalSamples: len(result.Summary),
			TotalNeurons: result.TotalNeurons(),
		}
		for i := range result.Summary {
			s := &result.Summary[i]
			row.Completed += s.Completed
			row.PendingReview += s.PendingReview
			row.Hold += s.Hold
			row.Untraceable += s.Untraceable
			row.InProgress += s.InProgress
			row.Incomplete += s.Incomplete
			row.Other += s.Other
		}
		out = append(out, row)
	}
	return out
}
