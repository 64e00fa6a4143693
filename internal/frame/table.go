// Package frame holds small ordered tables of query results.
//
// A Table keeps its columns in insertion order and carries one label per row
// (the index). Labels survive filtering and concatenation untouched, so two
// rows may share a label after tables from different sources are combined.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// DefaultIndex is the column promoted to the row index when none is given.
const DefaultIndex = "id"

var (
	// ErrColumnNotFound indicates a lookup of an unknown column.
	ErrColumnNotFound = errors.New("frame: column not found")
	// ErrLabelNotFound indicates a lookup of an unknown row label.
	ErrLabelNotFound = errors.New("frame: row label not found")
	// ErrShape indicates values whose length does not match the table.
	ErrShape = errors.New("frame: shape mismatch")
)

// Table is an ordered set of named columns with labelled rows.
type Table struct {
	indexName string
	columns   []string
	index     []any
	data      map[string][]any
}

// New creates an empty table indexed by indexName with the given columns.
func New(indexName string, columns ...string) *Table {
	if indexName == "" {
		indexName = DefaultIndex
	}
	t := &Table{
		indexName: indexName,
		columns:   slices.Clone(columns),
		data:      make(map[string][]any, len(columns)),
	}
	for _, c := range columns {
		t.data[c] = nil
	}
	return t
}

// FromRows builds a table from raw result rows, promoting indexColumn to the
// row index. The promoted column is removed from the data columns.
func FromRows(columns []string, rows [][]any, indexColumn string) (*Table, error) {
	if indexColumn == "" {
		indexColumn = DefaultIndex
	}
	pos := slices.Index(columns, indexColumn)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, indexColumn)
	}
	rest := make([]string, 0, len(columns)-1)
	rest = append(rest, columns[:pos]...)
	rest = append(rest, columns[pos+1:]...)
	t := New(indexColumn, rest...)
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), len(columns))
		}
		values := make([]any, 0, len(rest))
		values = append(values, row[:pos]...)
		values = append(values, row[pos+1:]...)
		if err := t.Append(row[pos], values...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// IndexName reports the name of the row index.
func (t *Table) IndexName() string { return t.indexName }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Index returns the row labels in row order.
func (t *Table) Index() []any { return slices.Clone(t.index) }

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.index) }

// HasColumn reports whether name is a data column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Append adds a row with the given label. values follow column order.
func (t *Table) Append(label any, values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrShape, len(values), len(t.columns))
	}
	t.index = append(t.index, label)
	for i, c := range t.columns {
		t.data[c] = append(t.data[c], values[i])
	}
	return nil
}

// Column returns a copy of the values of the named column.
func (t *Table) Column(name string) ([]any, error) {
	values, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return slices.Clone(values), nil
}

// SetColumn replaces the named column, appending it after the existing
// columns when it does not exist yet.
func (t *Table) SetColumn(name string, values []any) error {
	if len(values) != t.Len() {
		return fmt.Errorf("%w: column %s has %d values for %d rows", ErrShape, name, len(values), t.Len())
	}
	if _, ok := t.data[name]; !ok {
		t.columns = append(t.columns, name)
	}
	t.data[name] = slices.Clone(values)
	return nil
}

// Row returns row i as a record, including the index under its name.
func (t *Table) Row(i int) Record {
	rec := make(Record, len(t.columns)+1)
	rec[t.indexName] = t.index[i]
	for _, c := range t.columns {
		rec[c] = t.data[c][i]
	}
	return rec
}

// Loc returns the first row labelled label. Labels are compared by their
// Key form, so a uuid string finds a row labelled with the same uuid.
func (t *Table) Loc(label any) (Record, error) {
	want, ok := Key(label)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrLabelNotFound, label)
	}
	for i, l := range t.index {
		if got, ok := Key(l); ok && got == want {
			return t.Row(i), nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrLabelNotFound, label)
}

// Filter returns a new table holding the rows for which keep reports true,
// in their original order and with their original labels.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.indexName, t.columns...)
	for i := range t.index {
		if !keep(i) {
			continue
		}
		out.index = append(out.index, t.index[i])
		for _, c := range t.columns {
			out.data[c] = append(out.data[c], t.data[c][i])
		}
	}
	return out
}

// Concat stacks tables vertically. All tables must share the first table's
// columns in the same order. Row labels are kept as they are.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("frame: no tables to concatenate")
	}
	first := tables[0]
	out := New(first.indexName, first.columns...)
	for n, t := range tables {
		if !slices.Equal(t.columns, first.columns) {
			return nil, fmt.Errorf("%w: table %d columns %v, want %v", ErrShape, n, t.columns, first.columns)
		}
		out.index = append(out.index, t.index...)
		for _, c := range first.columns {
			out.data[c] = append(out.data[c], t.data[c]...)
		}
	}
	return out, nil
}

type tableJSON struct {
	IndexName string   `json:"index_name"`
	Columns   []string `json:"columns"`
	Index     []any    `json:"index"`
	Rows      [][]any  `json:"rows"`
}

// MarshalJSON encodes the table in a split layout: column names, row labels
// and row-major values.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := make([][]any, t.Len())
	for i := range rows {
		row := make([]any, len(t.columns))
		for j, c := range t.columns {
			row[j] = t.data[c][i]
		}
		rows[i] = row
	}
	index := t.index
	if index == nil {
		index = []any{}
	}
	columns := t.columns
	if columns == nil {
		columns = []string{}
	}
	return json.Marshal(tableJSON{
		IndexName: t.indexName,
		Columns:   columns,
		Index:     index,
		Rows:      rows,
	})
}
