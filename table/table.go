package table

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/section"
)

// Table is the columnar store for one record kind.
//
// Columns follow the kind's payload layout, then virtual_time and real_time.
// Rows keep the order in which their samples appeared in the log. A Table is
// immutable once built and safe for concurrent reads.
type Table struct {
	kind    format.RecordKind
	layout  section.Layout
	columns []*Column
	byName  map[string]int
	rows    int
}

func newTable(kind format.RecordKind) *Table {
	layout, ok := section.LayoutFor(kind)
	if !ok {
		panic(fmt.Sprintf("table: no layout for kind %d", kind))
	}

	t := &Table{kind: kind, layout: layout}
	for _, f := range layout.Fields() {
		t.addColumn(newColumn(f.Name, f.Type, 0))
	}
	t.addColumn(newColumn(section.ColumnVirtualTime, format.TypeFloat64, 0))
	t.addColumn(newColumn(section.ColumnRealTime, format.TypeFloat64, 0))

	return t
}

// NewTableFromColumns assembles a table from prebuilt columns.
//
// The columns must match the kind's schema exactly (names, order and types)
// and have equal lengths.
func NewTableFromColumns(kind format.RecordKind, columns []*Column) (*Table, error) {
	layout, ok := section.LayoutFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownRecordKind, kind)
	}

	want := Schema(kind)
	if len(columns) != len(want) {
		return nil, fmt.Errorf("%s table wants %d columns, got %d", kind, len(want), len(columns))
	}

	t := &Table{kind: kind, layout: layout}
	for i, c := range columns {
		if c.Name() != want[i].Name || c.Type() != want[i].Type {
			return nil, fmt.Errorf("%w: %s column %d is %s %s, want %s %s",
				errs.ErrUnknownColumn, kind, i, c.Name(), c.Type(), want[i].Name, want[i].Type)
		}
		if i > 0 && c.Len() != columns[0].Len() {
			return nil, fmt.Errorf("%s column %s has %d rows, want %d", kind, c.Name(), c.Len(), columns[0].Len())
		}
		t.addColumn(c)
	}
	if len(columns) > 0 {
		t.rows = columns[0].Len()
	}

	return t, nil
}

// Schema returns the column names and types of a kind's table, in order.
func Schema(kind format.RecordKind) []section.Field {
	layout, ok := section.LayoutFor(kind)
	if !ok {
		return nil
	}

	return append(layout.Fields(),
		section.Field{Name: section.ColumnVirtualTime, Type: format.TypeFloat64},
		section.Field{Name: section.ColumnRealTime, Type: format.TypeFloat64},
	)
}

func (t *Table) addColumn(c *Column) {
	if t.byName == nil {
		t.byName = make(map[string]int)
	}
	t.byName[c.Name()] = len(t.columns)
	t.columns = append(t.columns, c)
}

// append adds one sample as a row. The sample must match the table's layout.
func (t *Table) append(s section.Sample) {
	col := 0
	for _, v := range s.Uints {
		t.columns[col].u32 = append(t.columns[col].u32, v)
		col++
	}
	for _, v := range s.Floats {
		t.columns[col].f32 = append(t.columns[col].f32, v)
		col++
	}
	t.columns[col].f64 = append(t.columns[col].f64, s.VirtualTime)
	t.columns[col+1].f64 = append(t.columns[col+1].f64, s.RealTime)
	t.rows++
}

// Kind returns the record kind stored in the table.
func (t *Table) Kind() format.RecordKind { return t.kind }

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// ColumnNames returns the column names in schema order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}

	return names
}

// Columns returns the table's columns in schema order.
func (t *Table) Columns() []*Column {
	return slices.Clone(t.columns)
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s table has no column %q", errs.ErrUnknownColumn, t.kind, name)
	}

	return t.columns[i], nil
}

// Sample rebuilds row i as a section.Sample. Flag is not retained and is zero.
func (t *Table) Sample(i int) section.Sample {
	s := section.Sample{
		Kind:   t.kind,
		Uints:  make([]uint32, len(t.layout.Uints)),
		Floats: make([]float32, len(t.layout.Floats)),
	}

	col := 0
	for j := range s.Uints {
		s.Uints[j] = t.columns[col].u32[i]
		col++
	}
	for j := range s.Floats {
		s.Floats[j] = t.columns[col].f32[i]
		col++
	}
	s.VirtualTime = t.columns[col].f64[i]
	s.RealTime = t.columns[col+1].f64[i]

	return s
}

// Samples returns an iterator over every row as a section.Sample.
func (t *Table) Samples() iter.Seq2[int, section.Sample] {
	return func(yield func(int, section.Sample) bool) {
		for i := range t.rows {
			if !yield(i, t.Sample(i)) {
				return
			}
		}
	}
}

// times returns the timestamp column for a basis.
func (t *Table) times(basis format.TimeBasis) []float64 {
	return t.columns[t.byName[basis.Column()]].f64
}

// Span returns the smallest and largest timestamp recorded on basis.
// NaN timestamps are ignored. It reports false for an empty table.
func (t *Table) Span(basis format.TimeBasis) (TimeRange, bool) {
	span := TimeRange{Min: math.Inf(1), Max: math.Inf(-1)}
	found := false
	for _, v := range t.times(basis) {
		if math.IsNaN(v) {
			continue
		}
		span.Min = min(span.Min, v)
		span.Max = max(span.Max, v)
		found = true
	}
	if !found {
		return TimeRange{}, false
	}

	return span, true
}

// DistinctIDs returns the sorted distinct values of a uint32 column,
// typically PE_ID, KP_ID or LP_ID.
func (t *Table) DistinctIDs(column string) ([]uint32, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	if c.Type() != format.TypeUint32 {
		return nil, fmt.Errorf("%w: %s is %s, not an id column", errs.ErrUnknownColumn, column, c.Type())
	}

	ids := slices.Clone(c.u32)
	slices.Sort(ids)

	return slices.Compact(ids), nil
}

// Select projects columns over the rows whose basis timestamp lies in r.
// A nil r selects every row. Empty columns selects every column.
func (t *Table) Select(columns []string, basis format.TimeBasis, r *TimeRange) (*Projection, error) {
	if len(columns) == 0 {
		columns = t.ColumnNames()
	}

	picked := make([]*Column, 0, len(columns))
	for _, name := range columns {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		picked = append(picked, c)
	}

	if r == nil {
		return newProjection(t.kind, picked, nil, t.rows), nil
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	times := t.times(basis)
	idx := make([]int, 0, len(times))
	for i, v := range times {
		if r.Contains(v) {
			idx = append(idx, i)
		}
	}

	out := make([]*Column, len(picked))
	for i, c := range picked {
		out[i] = c.take(idx)
	}

	return newProjection(t.kind, out, idx, len(idx)), nil
}
