package soma

import (
	"fmt"
	"io"
	"sort"
)

// WriteStats writes a human-readable breakdown of an analysis result:
// totals, per-status percentages, and the genotype and registration status
// distributions across samples.
func (r *Result) WriteStats(w io.Writer) {
	if r.Empty() {
		fmt.Fprintf(w, "No data for %s\n", r.Location)
		return
	}

	suffix := ""
	if r.HiveFilter {
		suffix = " (HIVE only)"
	}
	totalNeurons := r.TotalNeurons()

	fmt.Fprintf(w, "\nSUMMARY STATISTICS for %s%s:\n", r.Location, suffix)
	fmt.Fprintf(w, "   Total Samples: %d\n", len(r.Summary))
	fmt.Fprintf(w, "   Total Neurons: %d\n", totalNeurons)

	// Status breakdown, canonical buckets only.
	for _, bucket := range StatusBuckets[:len(StatusBuckets)-1] {
		total := 0
		for i := range r.Summary {
			total += r.Summary[i].Count(bucket)
		}
		pct := 0.0
		if totalNeurons > 0 {
			pct = float64(total) / float64(totalNeurons) * 100
		}
		fmt.Fprintf(w, "   %s: %d (%.1f%%)\n", bucketLabel(bucket), total, pct)
	}

	writeDistribution(w, "GENOTYPE DISTRIBUTION", r.Summary, func(s *SummaryRow) string { return s.Genotype })
	writeDistribution(w, "REGISTRATION STATUS", r.Summary, func(s *SummaryRow) string { return s.RegistrationStatus })
}

func writeDistribution(w io.Writer, title string, rows []SummaryRow, key func(*SummaryRow) string) {
	counts := make(map[string]int)
	var order []string
	for i := range rows {
		k := key(&rows[i])
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range order {
		fmt.Fprintf(w, "   %s: %d samples\n", k, counts[k])
	}
}
