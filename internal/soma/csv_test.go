package soma

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteSummaryCSV(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	rows := []SummaryRow{
		{SampleID: "657676", Genotype: "Slc17a6", Completed: 2, Hold: 1, RegistrationStatus: "Yes", TotalNeurons: 3, HiveFilter: true},
	}
	path, err := an.writeSummaryCSV(rows, "summary.csv")
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, summaryHeader, records[0])
	assert.Equal(t, []string{
		"657676", "Slc17a6",
		"2", "0", "1", "0", "0", "0", "0",
		"Yes", "3", "Yes",
	}, records[1])
}

func TestWriteSummaryCSVRejectsTraversal(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	_, err := an.writeSummaryCSV([]SummaryRow{{SampleID: "1"}}, filepath.Join("..", "escape.csv"))
	assert.Error(t, err)
}

func TestWriteComparisonCSV(t *testing.T) {
	muteLogs(t)
	an := newTestAnalyzer(t, testSheet(true))

	rows := []ComparisonRow{
		{Location: "vm", TotalSamples: 2, TotalNeurons: 4, Completed: 2, Hold: 1, Other: 1},
		{Location: "thalamus", TotalSamples: 1, TotalNeurons: 1, PendingReview: 1},
	}
	path, err := an.WriteComparisonCSV(rows)
	require.NoError(t, err)
	assert.Equal(t, "soma_comparison_20260823_103000.csv", filepath.Base(path))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, comparisonHeader, records[0])
	assert.Equal(t, []string{"vm", "2", "4", "2", "0", "1", "0", "0", "0", "1"}, records[1])
	assert.Equal(t, []string{"thalamus", "1", "1", "0", "1", "0", "0", "0", "0", "0"}, records[2])
}
