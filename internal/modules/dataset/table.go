// Package dataset provides a small in-memory table for merging CSV snapshots.
//
// Cells are kept as strings. An empty cell or one of the usual NA spellings is
// a missing value; numeric accessors coerce malformed values to missing rather
// than failing.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row maps column name to cell value
type Row map[string]string

// Table is an ordered set of columns and rows
type Table struct {
	Columns []string
	Rows    []Row
}

// Suffixes disambiguate overlapping column names in a join
type Suffixes struct {
	Left  string
	Right string
}

// DefaultSuffixes mirrors the conventional _x/_y naming
var DefaultSuffixes = Suffixes{Left: "_x", Right: "_y"}

var naValues = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// New creates an empty table with the given columns
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// IsMissing reports whether a cell value represents a missing value
func IsMissing(v string) bool {
	_, ok := naValues[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// Get returns the cell value, or "" when missing
func (r Row) Get(col string) string {
	v := r[col]
	if IsMissing(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// Float parses a numeric cell. ok is false for missing or malformed values.
func (r Row) Float(col string) (float64, bool) {
	v := r.Get(col)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether the table declares col
func (t *Table) HasColumn(col string) bool {
	return indexOf(t.Columns, col) >= 0
}

// Drop removes columns. Columns that do not exist are ignored.
func (t *Table) Drop(cols ...string) *Table {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[c] = struct{}{}
	}

	kept := t.Columns[:0:0]
	for _, c := range t.Columns {
		if _, ok := drop[c]; !ok {
			kept = append(kept, c)
		}
	}
	t.Columns = kept

	for _, row := range t.Rows {
		for c := range drop {
			delete(row, c)
		}
	}
	return t
}

// Rename renames columns according to mapping old -> new
func (t *Table) Rename(mapping map[string]string) *Table {
	for i, c := range t.Columns {
		if n, ok := mapping[c]; ok {
			t.Columns[i] = n
		}
	}
	for _, row := range t.Rows {
		for old, n := range mapping {
			if v, ok := row[old]; ok {
				delete(row, old)
				row[n] = v
			}
		}
	}
	return t
}

// Filter keeps rows for which keep returns true
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := t.Rows[:0:0]
	for _, row := range t.Rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	t.Rows = rows
	return t
}

// Derive sets col on every row to the result of fn, adding the column if needed
func (t *Table) Derive(col string, fn func(Row) string) *Table {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
	for _, row := range t.Rows {
		row[col] = fn(row)
	}
	return t
}

// Coalesce writes the first non-missing value among sources into dst and
// drops the source columns.
func (t *Table) Coalesce(dst string, sources ...string) *Table {
	t.Derive(dst, func(row Row) string {
		for _, s := range sources {
			if v := row.Get(s); v != "" {
				return v
			}
		}
		return ""
	})

	var drop []string
	for _, s := range sources {
		if s != dst {
			drop = append(drop, s)
		}
	}
	return t.Drop(drop...)
}

// Select reorders the table to exactly cols. Absent columns become empty.
func (t *Table) Select(cols ...string) *Table {
	keep := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		keep[c] = struct{}{}
	}
	for _, row := range t.Rows {
		for c := range row {
			if _, ok := keep[c]; !ok {
				delete(row, c)
			}
		}
		for _, c := range cols {
			if _, ok := row[c]; !ok {
				row[c] = ""
			}
		}
	}
	t.Columns = append([]string(nil), cols...)
	return t
}

// SortBy stable-sorts rows by col. numeric compares values as floats.
// Missing values always sort last.
func (t *Table) SortBy(col string, desc bool, numeric bool) *Table {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]

		if numeric {
			av, aok := a.Float(col)
			bv, bok := b.Float(col)
			if !aok || !bok {
				return aok && !bok
			}
			if desc {
				return av > bv
			}
			return av < bv
		}

		as, bs := a.Get(col), b.Get(col)
		if as == "" || bs == "" {
			return as != "" && bs == ""
		}
		if desc {
			return as > bs
		}
		return as < bs
	})
	return t
}

// OuterJoin merges left and right on key, keeping rows from both sides.
// Columns present on both sides (other than key) are suffixed. Left rows keep
// their order; right rows without a match are appended in their order.
func OuterJoin(left, right *Table, key string, suffixes Suffixes) *Table {
	overlap := make(map[string]struct{})
	for _, c := range left.Columns {
		if c != key && indexOf(right.Columns, c) >= 0 {
			overlap[c] = struct{}{}
		}
	}

	leftName := func(c string) string {
		if _, ok := overlap[c]; ok {
			return c + suffixes.Left
		}
		return c
	}
	rightName := func(c string) string {
		if _, ok := overlap[c]; ok {
			return c + suffixes.Right
		}
		return c
	}

	out := &Table{}
	for _, c := range left.Columns {
		out.Columns = append(out.Columns, leftName(c))
	}
	if indexOf(left.Columns, key) < 0 {
		out.Columns = append(out.Columns, key)
	}
	for _, c := range right.Columns {
		if c != key {
			out.Columns = append(out.Columns, rightName(c))
		}
	}

	byKey := make(map[string][]int)
	for i, row := range right.Rows {
		if k := row.Get(key); k != "" {
			byKey[k] = append(byKey[k], i)
		}
	}

	matched := make(map[int]bool)
	for _, lrow := range left.Rows {
		k := lrow.Get(key)
		idx := byKey[k]
		if k == "" || len(idx) == 0 {
			out.Rows = append(out.Rows, joinRow(lrow, nil, key, leftName, rightName))
			continue
		}
		for _, i := range idx {
			matched[i] = true
			out.Rows = append(out.Rows, joinRow(lrow, right.Rows[i], key, leftName, rightName))
		}
	}

	for i, rrow := range right.Rows {
		if !matched[i] {
			out.Rows = append(out.Rows, joinRow(nil, rrow, key, leftName, rightName))
		}
	}

	return out
}

func joinRow(l, r Row, key string, leftName, rightName func(string) string) Row {
	row := make(Row, len(l)+len(r))
	for c, v := range l {
		if c == key {
			row[key] = v
			continue
		}
		row[leftName(c)] = v
	}
	for c, v := range r {
		if c == key {
			if IsMissing(row[key]) {
				row[key] = v
			}
			continue
		}
		row[rightName(c)] = v
	}
	return row
}

func indexOf(cols []string, col string) int {
	for i, c := range cols {
		if c == col {
			return i
		}
	}
	return -1
}
