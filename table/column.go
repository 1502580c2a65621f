package table

import (
	"fmt"

	"github.com/arloliu/rossdash/format"
)

// Column is a named sequence of fixed-width values.
//
// Exactly one of the typed backing slices is used, selected by Type. Columns
// are never mutated once their table is built, so they can be shared between
// a table and the projections taken from it.
type Column struct {
	name string
	typ  format.ColumnType
	u32  []uint32
	f32  []float32
	f64  []float64
}

func newColumn(name string, typ format.ColumnType, capacity int) *Column {
	c := &Column{name: name, typ: typ}
	switch typ {
	case format.TypeUint32:
		c.u32 = make([]uint32, 0, capacity)
	case format.TypeFloat32:
		c.f32 = make([]float32, 0, capacity)
	case format.TypeFloat64:
		c.f64 = make([]float64, 0, capacity)
	default:
		panic(fmt.Sprintf("table: unsupported column type %s", typ))
	}

	return c
}

// NewUint32Column creates a column over values. The slice is retained.
func NewUint32Column(name string, values []uint32) *Column {
	return &Column{name: name, typ: format.TypeUint32, u32: values}
}

// NewFloat32Column creates a column over values. The slice is retained.
func NewFloat32Column(name string, values []float32) *Column {
	return &Column{name: name, typ: format.TypeFloat32, f32: values}
}

// NewFloat64Column creates a column over values. The slice is retained.
func NewFloat64Column(name string, values []float64) *Column {
	return &Column{name: name, typ: format.TypeFloat64, f64: values}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column's value type.
func (c *Column) Type() format.ColumnType { return c.typ }

// Len returns the number of values.
func (c *Column) Len() int {
	switch c.typ {
	case format.TypeUint32:
		return len(c.u32)
	case format.TypeFloat32:
		return len(c.f32)
	default:
		return len(c.f64)
	}
}

// Float64 returns the value at i widened to float64.
func (c *Column) Float64(i int) float64 {
	switch c.typ {
	case format.TypeUint32:
		return float64(c.u32[i])
	case format.TypeFloat32:
		return float64(c.f32[i])
	default:
		return c.f64[i]
	}
}

// Uint32s returns the backing slice of a uint32 column, nil otherwise.
// The caller must not modify it.
func (c *Column) Uint32s() []uint32 { return c.u32 }

// Float32s returns the backing slice of a float32 column, nil otherwise.
// The caller must not modify it.
func (c *Column) Float32s() []float32 { return c.f32 }

// Float64s returns the backing slice of a float64 column, nil otherwise.
// The caller must not modify it.
func (c *Column) Float64s() []float64 { return c.f64 }

// Values returns a copy of the column widened to float64.
func (c *Column) Values() []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float64(i)
	}

	return out
}

// take returns a column holding the values at idx, in idx order.
func (c *Column) take(idx []int) *Column {
	out := newColumn(c.name, c.typ, len(idx))
	switch c.typ {
	case format.TypeUint32:
		for _, i := range idx {
			out.u32 = append(out.u32, c.u32[i])
		}
	case format.TypeFloat32:
		for _, i := range idx {
			out.f32 = append(out.f32, c.f32[i])
		}
	default:
		for _, i := range idx {
			out.f64 = append(out.f64, c.f64[i])
		}
	}

	return out
}
