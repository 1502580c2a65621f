package table

import (
	"fmt"
	"iter"
	"slices"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

// Query selects columns from one table, optionally narrowed by time.
type Query struct {
	// Columns to project, in output order. Empty means every column.
	Columns []string
	// Basis is the time column Range applies to.
	Basis format.TimeBasis
	// Range overrides the active window when set.
	Range *TimeRange
	// Unfiltered ignores the active window when Range is nil.
	Unfiltered bool
}

// Projection is the result of a query: a set of equal-length columns.
type Projection struct {
	kind    format.RecordKind
	columns []*Column
	indices []int
	rows    int
}

func newProjection(kind format.RecordKind, columns []*Column, indices []int, rows int) *Projection {
	return &Projection{kind: kind, columns: columns, indices: indices, rows: rows}
}

// Kind returns the record kind the projection was taken from.
func (p *Projection) Kind() format.RecordKind { return p.kind }

// Len returns the number of rows.
func (p *Projection) Len() int { return p.rows }

// ColumnNames returns the projected column names in order.
func (p *Projection) ColumnNames() []string {
	names := make([]string, len(p.columns))
	for i, c := range p.columns {
		names[i] = c.Name()
	}

	return names
}

// Columns returns the projected columns in order.
func (p *Projection) Columns() []*Column {
	return slices.Clone(p.columns)
}

// Column returns a projected column by name.
func (p *Projection) Column(name string) (*Column, error) {
	for _, c := range p.columns {
		if c.Name() == name {
			return c, nil
		}
	}

	return nil, fmt.Errorf("%w: %q not in projection", errs.ErrUnknownColumn, name)
}

// Row returns row i widened to float64, one value per projected column.
func (p *Projection) Row(i int) []float64 {
	row := make([]float64, len(p.columns))
	for j, c := range p.columns {
		row[j] = c.Float64(i)
	}

	return row
}

// All iterates rows in table order. The yielded slice is reused between
// iterations; copy it to retain it.
func (p *Projection) All() iter.Seq2[int, []float64] {
	return func(yield func(int, []float64) bool) {
		row := make([]float64, len(p.columns))
		for i := range p.rows {
			for j, c := range p.columns {
				row[j] = c.Float64(i)
			}
			if !yield(i, row) {
				return
			}
		}
	}
}

// Indices returns the source table row of each projected row.
func (p *Projection) Indices() []int {
	if p.indices != nil {
		return slices.Clone(p.indices)
	}

	idx := make([]int, p.rows)
	for i := range idx {
		idx[i] = i
	}

	return idx
}
