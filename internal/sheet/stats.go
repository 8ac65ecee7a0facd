package sheet

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AggFunc names a group-by aggregation.
type AggFunc string

const (
	AggCount  AggFunc = "count"
	AggSum    AggFunc = "sum"
	AggMean   AggFunc = "mean"
	AggMedian AggFunc = "median"
	AggStdDev AggFunc = "std"
)

// GroupResult is one output row of a group-by: the grouping key's display
// form and the aggregated value.
type GroupResult struct {
	Key   string
	Value float64
}

// GroupBy groups the current table by a column and aggregates a value
// column. AggCount needs no value column. Cells that fail numeric parsing
// are excluded from the aggregate, matching the filter semantics. Groups are
// returned in first-seen order.
func (p *Processor) GroupBy(column string, fn AggFunc, valueColumn string) ([]GroupResult, error) {
	if !p.table.HasColumn(column) {
		return nil, fmt.Errorf("column %q not found in data", column)
	}
	if fn != AggCount {
		if valueColumn == "" {
			return nil, fmt.Errorf("aggregation %q requires a value column", fn)
		}
		if !p.table.HasColumn(valueColumn) {
			return nil, fmt.Errorf("value column %q not found in data", valueColumn)
		}
	}

	var order []string
	groups := make(map[string][]float64)
	counts := make(map[string]int)
	for _, r := range p.table.Rows {
		key := r.Get(column).Text()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
		if fn == AggCount {
			continue
		}
		if f, ok := r.Get(valueColumn).Float(); ok {
			groups[key] = append(groups[key], f)
		}
	}

	out := make([]GroupResult, 0, len(order))
	for _, key := range order {
		var agg float64
		switch fn {
		case AggCount:
			agg = float64(counts[key])
		case AggSum:
			for _, f := range groups[key] {
				agg += f
			}
		case AggMean:
			agg = stat.Mean(groups[key], nil)
		case AggMedian:
			agg = median(groups[key])
		case AggStdDev:
			agg = stat.StdDev(groups[key], nil)
		default:
			return nil, fmt.Errorf("unsupported aggregation function %q", fn)
		}
		out = append(out, GroupResult{Key: key, Value: agg})
	}
	return out, nil
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// ColumnStats summarises one column: null accounting, distinct values, and
// numeric statistics over the parseable subset.
type ColumnStats struct {
	Name         string
	NonNullCount int
	NullCount    int
	UniqueCount  int
	NumericCount int
	Mean         float64
	Median       float64
	StdDev       float64
	Min          float64
	Max          float64
	TopValues    []GroupResult
}

// Stats computes ColumnStats for the named column on the current table.
func (p *Processor) Stats(column string) (*ColumnStats, error) {
	if !p.table.HasColumn(column) {
		return nil, fmt.Errorf("column %q not found in data", column)
	}

	cs := &ColumnStats{Name: column}
	var nums []float64
	valueCounts := make(map[string]int)
	var order []string
	for _, r := range p.table.Rows {
		v := r.Get(column)
		if v.IsNull() {
			cs.NullCount++
			continue
		}
		cs.NonNullCount++
		text := v.Text()
		if _, seen := valueCounts[text]; !seen {
			order = append(order, text)
		}
		valueCounts[text]++
		if f, ok := v.Float(); ok {
			nums = append(nums, f)
		}
	}
	cs.UniqueCount = len(valueCounts)
	cs.NumericCount = len(nums)

	if len(nums) > 0 {
		cs.Mean = stat.Mean(nums, nil)
		cs.Median = median(nums)
		cs.StdDev = stat.StdDev(nums, nil)
		cs.Min, cs.Max = nums[0], nums[0]
		for _, f := range nums[1:] {
			if f < cs.Min {
				cs.Min = f
			}
			if f > cs.Max {
				cs.Max = f
			}
		}
	}

	// Top ten values by count, count-descending with first-seen order as
	// tiebreak.
	sort.SliceStable(order, func(i, j int) bool {
		return valueCounts[order[i]] > valueCounts[order[j]]
	})
	for i, text := range order {
		if i == 10 {
			break
		}
		cs.TopValues = append(cs.TopValues, GroupResult{Key: text, Value: float64(valueCounts[text])})
	}
	return cs, nil
}

// NumericColumns returns the columns where at least one cell parses as a
// number.
func (p *Processor) NumericColumns() []string {
	return p.columnsWhere(func(v Value) bool {
		_, ok := v.Float()
		return ok
	}, 0)
}

// CategoricalColumns returns the columns where at least one cell is a
// string.
func (p *Processor) CategoricalColumns() []string {
	return p.columnsWhere(func(v Value) bool {
		return v.Kind() == KindString
	}, 0)
}

// DateColumns returns the columns where more than half of the rows parse as
// dates.
func (p *Processor) DateColumns() []string {
	return p.columnsWhere(func(v Value) bool {
		_, ok := v.Time()
		return ok
	}, 0.5)
}

// columnsWhere selects columns where the fraction of matching cells exceeds
// minFraction (strictly, with zero meaning "at least one").
func (p *Processor) columnsWhere(match func(Value) bool, minFraction float64) []string {
	var out []string
	total := len(p.table.Rows)
	for _, col := range p.table.Columns {
		n := 0
		for _, r := range p.table.Rows {
			if match(r.Get(col)) {
				n++
			}
		}
		if total == 0 {
			continue
		}
		if minFraction == 0 {
			if n > 0 {
				out = append(out, col)
			}
		} else if float64(n) > float64(total)*minFraction {
			out = append(out, col)
		}
	}
	return out
}

// Summary describes the current table shape.
type Summary struct {
	TotalRows          int
	TotalColumns       int
	Columns            []string
	NumericColumns     []string
	CategoricalColumns []string
	DateColumns        []string
}

// Summarize returns a Summary of the current table.
func (p *Processor) Summarize() Summary {
	return Summary{
		TotalRows:          p.table.Len(),
		TotalColumns:       len(p.table.Columns),
		Columns:            append([]string(nil), p.table.Columns...),
		NumericColumns:     p.NumericColumns(),
		CategoricalColumns: p.CategoricalColumns(),
		DateColumns:        p.DateColumns(),
	}
}
