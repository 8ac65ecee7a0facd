package sheet

// Row maps a column name to its cell value. Columns absent from the map are
// treated as null.
type Row map[string]Value

// Get returns the cell for a column, or null if the row has no entry.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null()
}

// Table is an ordered sequence of rows sharing a column schema. Filtering
// never mutates the receiver: derived tables get a fresh row slice but share
// the underlying Row maps, so a Table behaves as an independent view as long
// as rows are not written through it.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column schema.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds a row to the table.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// HasColumn reports whether the schema contains the named column.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of required that is absent from the
// schema, preserving order.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// view returns a new table with the same schema and the given rows. The Row
// maps are shared with the parent.
func (t *Table) view(rows []Row) *Table {
	return &Table{Columns: t.Columns, Rows: rows}
}

// Select returns a new table containing the rows for which keep returns
// true.
func (t *Table) Select(keep func(Row) bool) *Table {
	out := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return t.view(out)
}

// Head returns a view of the first n rows (or all rows if the table is
// shorter).
func (t *Table) Head(n int) *Table {
	if n >= len(t.Rows) {
		return t.view(t.Rows)
	}
	return t.view(t.Rows[:n])
}

// Clone returns a deep copy: new row slice and new Row maps. Use this when a
// caller needs to mutate cells without affecting other views.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		rows[i] = cp
	}
	return &Table{Columns: append([]string(nil), t.Columns...), Rows: rows}
}
