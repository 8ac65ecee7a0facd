package soma

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/hivelab-data/soma.report/internal/fsutil"
	"github.com/hivelab-data/soma.report/internal/monitoring"
	"github.com/hivelab-data/soma.report/internal/security"
)

// summaryHeader matches the SummaryRow fields in order.
var summaryHeader = []string{
	"Sample_ID", "Genotype",
	"Completed", "Pending_Review", "Hold", "Untraceable", "In_Progress", "Incomplete", "Other",
	"Registration_Status", "Total_Neurons", "HIVE_Filter",
}

// writeSummaryCSV encodes the summary into OutputDir/name. The file is
// written atomically: a render or encode failure leaves no partial file.
func (a *Analyzer) writeSummaryCSV(rows []SummaryRow, name string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(summaryHeader); err != nil {
		return "", err
	}
	for i := range rows {
		r := &rows[i]
		hive := "No"
		if r.HiveFilter {
			hive = "Yes"
		}
		record := []string{
			r.SampleID, r.Genotype,
			strconv.Itoa(r.Completed), strconv.Itoa(r.PendingReview), strconv.Itoa(r.Hold),
			strconv.Itoa(r.Untraceable), strconv.Itoa(r.InProgress), strconv.Itoa(r.Incomplete),
			strconv.Itoa(r.Other),
			r.RegistrationStatus, strconv.Itoa(r.TotalNeurons), hive,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	if err := fsutil.EnsureDir(a.cfg.OutputDir); err != nil {
		return "", err
	}
	path := filepath.Join(a.cfg.OutputDir, name)
	if err := security.ValidatePathWithinDirectory(path, a.cfg.OutputDir); err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// comparisonHeader matches the ComparisonRow fields in order.
var comparisonHeader = []string{
	"Soma_Location", "Total_Samples", "Total_Neurons",
	"Completed", "Pending_Review", "Hold", "Untraceable", "In_Progress", "Incomplete", "Other",
}

// WriteComparisonCSV exports comparison rows to a timestamped CSV in the
// output directory and returns its path.
func (a *Analyzer) WriteComparisonCSV(rows []ComparisonRow) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(comparisonHeader); err != nil {
		return "", err
	}
	for i := range rows {
		r := &rows[i]
		record := []string{
			r.Location, strconv.Itoa(r.TotalSamples), strconv.Itoa(r.TotalNeurons),
			strconv.Itoa(r.Completed), strconv.Itoa(r.PendingReview), strconv.Itoa(r.Hold),
			strconv.Itoa(r.Untraceable), strconv.Itoa(r.InProgress), strconv.Itoa(r.Incomplete),
			strconv.Itoa(r.Other),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	if err := fsutil.EnsureDir(a.cfg.OutputDir); err != nil {
		return "", err
	}
	name := fmt.Sprintf("soma_comparison_%s.csv", a.clock.Now().Format("20060102_150405"))
	path := filepath.Join(a.cfg.OutputDir, name)
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	monitoring.Logf("comparison CSV saved: %s", path)
	return path, nil
}
