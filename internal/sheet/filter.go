package sheet

import (
	"strings"
	"time"

	"github.com/hivelab-data/soma.report/internal/monitoring"
)

// Condition decides whether a single cell satisfies a column filter.
type Condition interface {
	Match(v Value) bool
}

// Equals keeps rows whose cell equals the wanted value under type coercion
// (see Value.Equal).
type Equals struct {
	Want Value
}

func (c Equals) Match(v Value) bool { return v.Equal(c.Want) }

// In keeps rows whose cell equals any of the wanted values.
type In struct {
	Want []Value
}

func (c In) Match(v Value) bool {
	for _, w := range c.Want {
		if v.Equal(w) {
			return true
		}
	}
	return false
}

// NumRange keeps rows whose cell parses as a number within the inclusive
// bounds. A nil bound is open. Unparseable cells are excluded.
type NumRange struct {
	Min *float64
	Max *float64
}

func (c NumRange) Match(v Value) bool {
	f, ok := v.Float()
	if !ok {
		return false
	}
	if c.Min != nil && f < *c.Min {
		return false
	}
	if c.Max != nil && f > *c.Max {
		return false
	}
	return true
}

// DateRange keeps rows whose cell parses as a date within the inclusive
// bounds. Unparseable cells are excluded.
type DateRange struct {
	After  *time.Time
	Before *time.Time
}

func (c DateRange) Match(v Value) bool {
	t, ok := v.Time()
	if !ok {
		return false
	}
	if c.After != nil && t.Before(*c.After) {
		return false
	}
	if c.Before != nil && t.After(*c.Before) {
		return false
	}
	return true
}

// Contains keeps rows whose cell's display form contains the substring,
// case-insensitively. Null cells are excluded.
type Contains struct {
	Substring string
}

func (c Contains) Match(v Value) bool {
	if v.IsNull() {
		return false
	}
	return strings.Contains(strings.ToLower(v.Text()), strings.ToLower(c.Substring))
}

// FilterSet maps column names to the condition each must satisfy. Conditions
// combine with logical AND across columns.
type FilterSet map[string]Condition

// Processor applies filters and aggregations to a table while remembering
// the pristine original. Filters stack: each Apply works on the current
// state, and Reset restores the original.
type Processor struct {
	table    *Table
	original *Table
}

// NewProcessor wraps a loaded table. The original is retained for Reset.
func NewProcessor(t *Table) *Processor {
	return &Processor{table: t, original: t}
}

// Table returns the current (possibly filtered) table.
func (p *Processor) Table() *Table { return p.table }

// Apply filters the current table in place and returns the result. Unknown
// columns are logged and skipped rather than failing the whole filter.
func (p *Processor) Apply(filters FilterSet) *Table {
	filtered := p.table
	for column, cond := range filters {
		if !filtered.HasColumn(column) {
			monitoring.Warnf("filter: column %q not found in data, skipping", column)
			continue
		}
		col, c := column, cond
		filtered = filtered.Select(func(r Row) bool {
			return c.Match(r.Get(col))
		})
	}
	p.table = filtered
	return filtered
}

// Search returns rows where any of the given columns contains the term,
// case-insensitively. With no columns given, all categorical columns are
// searched. The current table is not modified.
func (p *Processor) Search(term string, columns []string) *Table {
	if len(columns) == 0 {
		columns = p.CategoricalColumns()
	}
	cond := Contains{Substring: term}
	return p.table.Select(func(r Row) bool {
		for _, col := range columns {
			if cond.Match(r.Get(col)) {
				return true
			}
		}
		return false
	})
}

// Reset restores the table to its original unfiltered state.
func (p *Processor) Reset() {
	p.table = p.original
}
