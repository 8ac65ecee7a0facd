// Package sheet models spreadsheet data as an in-memory table of
// loosely-typed cells, and provides column-level filtering and aggregation
// over it. Cell values are heterogeneous: a nominally numeric column may hold
// free text, so every typed accessor parses fallibly and callers treat a
// failed parse as "excluded" rather than an error.
package sheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the underlying representation of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a single cell: string, number, boolean or null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null returns the absent value.
func Null() Value { return Value{} }

// String wraps a string cell.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the cell's representation.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the display form of the cell. Null renders as the empty
// string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Float parses the cell as a number. Strings are parsed; anything
// unparseable reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return f, err == nil
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Bool parses the cell as a boolean. String cells accept the forms
// strconv.ParseBool understands.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		return b, err == nil
	default:
		return false, false
	}
}

// True reports whether the cell is exactly boolean true, either as a native
// bool or a parseable string form. Numbers are not truthy.
func (v Value) True() bool {
	b, ok := v.Bool()
	return ok && b
}

// dateLayouts are tried in order when parsing a cell as a date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Time parses the cell as a date.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindString {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.str)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Equal compares two cells with type coercion: if both sides parse as
// numbers they compare numerically, if both parse as booleans they compare as
// booleans, otherwise the display forms must match exactly. Null equals only
// null.
func (v Value) Equal(other Value) bool {
	if v.IsNull() || other.IsNull() {
		return v.IsNull() && other.IsNull()
	}
	if a, ok := v.Float(); ok {
		if b, ok := other.Float(); ok {
			return a == b
		}
	}
	if a, ok := v.Bool(); ok {
		if b, ok := other.Bool(); ok {
			return a == b
		}
	}
	return v.Text() == other.Text()
}

// MarshalJSON encodes the cell as its natural JSON type (null, string,
// number or bool) so snapshots stay readable.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a cell.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case string:
		*v = String(t)
	case float64:
		*v = Number(t)
	case bool:
		*v = Bool(t)
	default:
		return fmt.Errorf("unsupported cell type %T", raw)
	}
	return nil
}

// FromAny converts a decoded JSON scalar (as produced by encoding/json into
// interface{}) to a Value. Unknown types fall back to their fmt rendering.
func FromAny(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return Bool(t)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}
