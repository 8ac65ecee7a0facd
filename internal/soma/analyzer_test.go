package soma

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivelab-data/soma.report/internal/config"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/sheet"
	"github.com/hivelab-data/soma.report/internal/timeutil"
)

func muteLogs(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		OutputDir:         t.TempDir(),
		PlotFormat:        "svg",
		MaxSamplesDisplay: 50,
		ChartWidth:        12,
		ChartHeight:       8,
	}
}

// neuronRow builds one reconstruction row. hive may be a sheet.Value to
// exercise the marker column, or nil to omit it.
func neuronRow(id, ccf, manual, status, genotype, registered string, hive interface{}) sheet.Row {
	r := sheet.Row{
		ColID:                 sheet.String(id),
		ColCCFCompartment:     sheet.String(ccf),
		ColManualCompartment:  sheet.String(manual),
		ColStatus:             sheet.String(status),
		ColGenotype:           sheet.String(genotype),
		ColRegistrationStatus: sheet.String(registered),
	}
	if v, ok := hive.(sheet.Value); ok {
		r["HIVE"] = v
	}
	return r
}

func testSheet(withHive bool) *sheet.Table {
	columns := []string{ColID, ColCCFCompartment, ColManualCompartment, ColStatus, ColGenotype, ColRegistrationStatus}
	if withHive {
		columns = append(columns, "HIVE")
	}
	tbl := sheet.NewTable(columns)
	hv := func(b bool) interface{} {
		if !withHive {
			return nil
		}
		return sheet.Bool(b)
	}
	tbl.Append(neuronRow("N030-657676", "VM", "", "Completed", "Slc17a6", "Yes", hv(true)))
	tbl.Append(neuronRow("N030-657676", "VM", "", "Completed", "Slc17a6", "Yes", hv(true)))
	tbl.Append(neuronRow("N030-657676", "", "VM nucleus", "Hold", "Slc17a6", "Yes", hv(false)))
	tbl.Append(neuronRow("N031-700001", "VM", "", "Meeting Work", "Gad2", "No", hv(false)))
	tbl.Append(neuronRow("N032-800002", "Thalamus", "", "Pending Review", "Gad2", "No", hv(true)))
	return tbl
}

func newTestAnalyzer(t *testing.T, tbl *sheet.Table) *Analyzer {
	t.Helper()
	an, err := NewAnalyzer(tbl, testConfig(t))
	require.NoError(t, err)
	an.SetClock(timeutil.NewFakeClock(time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)))
	return an
}

func TestNewAnalyzerRejectsEmptyTable(t *testing.T) {
	muteLogs(t)
	_, err := NewAnalyzer(nil, testConfig(t))
	assert.Error(t, err)

	_, err = NewAnalyzer(sheet.NewTable([]string{ColID}), testConfig(t))
	assert.Error(t, err)
}

func TestExtractSampleID(t *testing.T) {
	cases := []struct {
		name string
		in   sheet.Value
		want string
	}{
		{"dash prefix", sheet.String("N030-657676"), "657676"},
		{"last dash wins", sheet.String("AB-12-34"), "34"},
		{"digits without dash", sheet.String("ABC123"), "123"},
		{"no digits", sheet.String("  no-digits-here  "), "no-digits-here"},
		{"numeric cell", sheet.Number(657676), "657676"},
		{"null", sheet.Null(), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractSampleID(tc.in))
		})
	}
}

func TestResolveHiveColumn(t *testing.T) {
	muteLogs(t)

	t.Run("by name", func(t *testing.T) {
		an := newTestAnalyzer(t, testSheet(true))
		col, res := an.ResolveHiveColumn()
		assert.Equal(t, "HIVE", col)
		assert.Equal(t, HiveByName, res)
	})

	t.Run("by bool values", func(t *testing.T) {
		tbl := sheet.NewTable([]string{ColID, "Marker"})
		tbl.Append(sheet.Row{ColID: sheet.String("N1-1"), "Marker": sheet.Bool(false)})
		tbl.Append(sheet.Row{ColID: sheet.String("N1-2"), "Marker": sheet.Bool(true)})
		an := newTestAnalyzer(t, tbl)
		col, res := an.ResolveHiveColumn()
		assert.Equal(t, "Marker", col)
		assert.Equal(t, HiveByBoolValues, res)
	})

	t.Run("not found", func(t *testing.T) {
		an := newTestAnalyzer(t, testSheet(false))
		_, res := an.ResolveHiveColumn()
		assert.Equal(t, HiveNotFound, res)
	})
}

func TestFilterByLocation(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	t.Run("all keeps every row", func(t *testing.T) {
		got, err := an.FilterByLocation("all", false)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Len())
	})

	t.Run("substring across both compartment columns", func(t *testing.T) {
		got, err := an.FilterByLocation("vm", false)
		require.NoError(t, err)
		// Two CCF matches plus one manual-estimate match.
		assert.Equal(t, 4, got.Len())
	})

	t.Run("zero match is not an error", func(t *testing.T) {
		got, err := an.FilterByLocation("cerebellum", false)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	})

	t.Run("blank location rejected", func(t *testing.T) {
		_, err := an.FilterByLocation("  ", false)
		assert.Error(t, err)
	})

	t.Run("hive filter narrows", func(t *testing.T) {
		got, err := an.FilterByLocation("all", true)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Len())
	})

	t.Run("hive fails closed without marker column", func(t *testing.T) {
		noHive := newTestAnalyzer(t, testSheet(false))
		got, err := noHive.FilterByLocation("all", true)
		assert.ErrorIs(t, err, ErrNoHiveColumn)
		assert.True(t, got.Empty())
	})
}

func TestSummarize(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	filtered, err := an.FilterByLocation("all", false)
	require.NoError(t, err)
	rows := an.Summarize(filtered, false)
	require.Len(t, rows, 3)

	// First-seen sample order.
	assert.Equal(t, "657676", rows[0].SampleID)
	assert.Equal(t, "700001", rows[1].SampleID)
	assert.Equal(t, "800002", rows[2].SampleID)

	first := rows[0]
	assert.Equal(t, 2, first.Completed)
	assert.Equal(t, 1, first.Hold)
	assert.Equal(t, 3, first.TotalNeurons)
	assert.Equal(t, "Slc17a6", first.Genotype)
	assert.Equal(t, "Yes", first.RegistrationStatus)

	// Unknown status text lands in Other.
	assert.Equal(t, 1, rows[1].Other)

	// Per-bucket counts always sum to the neuron total.
	for _, r := range rows {
		sum := 0
		for _, bucket := range StatusBuckets {
			sum += r.Count(bucket)
		}
		assert.Equal(t, r.TotalNeurons, sum, "sample %s", r.SampleID)
	}
}

func TestAnalyzeWritesArtifacts(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	result, err := an.Analyze("vm", Options{SaveCSV: true, CreatePlot: true, Format: "svg", HiveFilter: true})
	require.NoError(t, err)
	require.False(t, result.Empty())

	assert.Equal(t, "VM", result.Location)
	assert.Equal(t, "soma_analysis_VM_HIVE_20260823_103000.csv", filepath.Base(result.CSVPath))
	assert.Equal(t, "soma_analysis_plot_VM_HIVE_20260823_103000.svg", filepath.Base(result.PlotPath))
	assert.FileExists(t, result.CSVPath)
	assert.FileExists(t, result.PlotPath)
}

func TestAnalyzeAllLocationsDisplay(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	result, err := an.Analyze("all", Options{SaveCSV: true})
	require.NoError(t, err)
	assert.Equal(t, "ALL_LOCATIONS", result.Location)
	assert.Equal(t, "soma_analysis_ALL_20260823_103000.csv", filepath.Base(result.CSVPath))
	assert.Equal(t, 5, result.TotalNeurons())
}

func TestAnalyzeNoHiveColumn(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(false))

	result, err := an.Analyze("all", Options{HiveFilter: true, SaveCSV: true})
	require.NoError(t, err)
	assert.True(t, result.NoHiveColumn)
	assert.True(t, result.Empty())
	assert.Empty(t, result.CSVPath)
}

func TestAnalyzeEmptyResultShortCircuits(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	result, err := an.Analyze("cerebellum", Options{SaveCSV: true, CreatePlot: true})
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.False(t, result.NoHiveColumn)
	assert.Empty(t, result.CSVPath)
	assert.Empty(t, result.PlotPath)
}

func TestChartData(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	result, err := an.Analyze("all", Options{})
	require.NoError(t, err)
	d := an.ChartData(result)

	assert.Equal(t, []string{"657676", "700001", "800002"}, d.Labels)
	require.Len(t, d.Series, len(StatusBuckets))
	assert.Equal(t, "Completed", d.Series[0].Name)
	assert.Equal(t, BucketColors[BucketCompleted], d.Series[0].Color)
	assert.Equal(t, []float64{2, 0, 0}, d.Series[0].Values)
	assert.Contains(t, d.Title, "ALL_LOCATIONS")
}

func TestAvailableLocations(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	got := an.AvailableLocations()
	want := []LocationCount{
		{Location: "VM", Count: 3},
		{Location: "Thalamus", Count: 1},
		{Location: "VM nucleus", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareIsolatesFailures(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	// One good location, one empty, one invalid: only the good one survives
	// and the others never abort the run.
	rows := an.Compare([]string{"vm", "cerebellum", "  "})
	require.Len(t, rows, 1)
	assert.Equal(t, "vm", rows[0].Location)
	assert.Equal(t, 2, rows[0].TotalSamples)
	assert.Equal(t, 4, rows[0].TotalNeurons)
	assert.Equal(t, 2, rows[0].Completed)
	assert.Equal(t, 1, rows[0].Hold)
	assert.Equal(t, 1, rows[0].Other)
}
