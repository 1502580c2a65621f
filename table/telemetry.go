package table

import (
	"fmt"
	"math"
	"sync"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/section"
)

// Observer is notified with the new window after each window mutation.
type Observer func(Window)

type observerEntry struct {
	id uint64
	fn Observer
}

// Telemetry holds the PE, KP and LP tables decoded from one log, plus the
// active time window that narrows default queries.
//
// Tables are immutable, so queries may run concurrently. Window mutations are
// serialized and observers are notified in registration order while the
// mutation lock is held; an observer must not mutate the window itself.
type Telemetry struct {
	tables map[format.RecordKind]*Table

	updateMu sync.Mutex
	windowMu sync.RWMutex
	window   Window

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID uint64
}

// NewTelemetry assembles a Telemetry. A nil table is replaced by an empty one.
func NewTelemetry(pe, kp, lp *Table) (*Telemetry, error) {
	t := &Telemetry{tables: make(map[format.RecordKind]*Table, len(format.RecordKinds))}
	for i, tbl := range []*Table{pe, kp, lp} {
		kind := format.RecordKinds[i]
		if tbl == nil {
			tbl = newTable(kind)
		}
		if tbl.Kind() != kind {
			return nil, fmt.Errorf("%w: %s table passed as %s", errs.ErrUnknownRecordKind, tbl.Kind(), kind)
		}
		t.tables[kind] = tbl
	}

	return t, nil
}

// Table returns the table for kind.
func (t *Telemetry) Table(kind format.RecordKind) (*Table, error) {
	tbl, ok := t.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownRecordKind, kind)
	}

	return tbl, nil
}

// Tables returns the PE, KP and LP tables in that order.
func (t *Telemetry) Tables() []*Table {
	out := make([]*Table, 0, len(format.RecordKinds))
	for _, kind := range format.RecordKinds {
		out = append(out, t.tables[kind])
	}

	return out
}

// Len returns the number of rows of kind, or 0 for an unknown kind.
func (t *Telemetry) Len(kind format.RecordKind) int {
	if tbl, ok := t.tables[kind]; ok {
		return tbl.Len()
	}

	return 0
}

// Span returns the recorded span of one table on basis.
func (t *Telemetry) Span(kind format.RecordKind, basis format.TimeBasis) (TimeRange, bool, error) {
	tbl, err := t.Table(kind)
	if err != nil {
		return TimeRange{}, false, err
	}
	r, ok := tbl.Span(basis)

	return r, ok, nil
}

// FullSpan returns the span on basis across all three tables.
func (t *Telemetry) FullSpan(basis format.TimeBasis) (TimeRange, bool) {
	span := TimeRange{Min: math.Inf(1), Max: math.Inf(-1)}
	found := false
	for _, tbl := range t.tables {
		r, ok := tbl.Span(basis)
		if !ok {
			continue
		}
		span.Min = min(span.Min, r.Min)
		span.Max = max(span.Max, r.Max)
		found = true
	}
	if !found {
		return TimeRange{}, false
	}

	return span, true
}

// Window returns the active window. When no range is set the returned window
// is unbounded and its Range is the full recorded span on its basis.
func (t *Telemetry) Window() Window {
	t.windowMu.RLock()
	w := t.window
	t.windowMu.RUnlock()

	if !w.Bounded {
		w.Range, _ = t.FullSpan(w.Basis)
	}

	return w
}

// SetTimeRange narrows default queries to [lo, hi] on basis.
func (t *Telemetry) SetTimeRange(basis format.TimeBasis, lo, hi float64) error {
	if basis != format.VirtualTime && basis != format.RealTime {
		return fmt.Errorf("%w: unknown time basis %d", errs.ErrInvalidTimeRange, basis)
	}
	r := TimeRange{Min: lo, Max: hi}
	if err := r.Validate(); err != nil {
		return err
	}

	t.update(Window{Basis: basis, Range: r, Bounded: true})

	return nil
}

// ResetTimeRange restores the initial unbounded window on virtual time.
func (t *Telemetry) ResetTimeRange() {
	t.update(Window{Basis: format.VirtualTime})
}

func (t *Telemetry) update(w Window) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	t.windowMu.Lock()
	t.window = w
	t.windowMu.Unlock()

	t.notify(t.Window())
}

func (t *Telemetry) notify(w Window) {
	t.obsMu.Lock()
	observers := make([]Observer, len(t.observers))
	for i, e := range t.observers {
		observers[i] = e.fn
	}
	t.obsMu.Unlock()

	for _, fn := range observers {
		fn(w)
	}
}

// Subscribe registers fn for window changes and returns a function that
// removes it. Calling the returned function more than once is harmless.
func (t *Telemetry) Subscribe(fn Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	id := t.nextObsID
	t.nextObsID++
	t.observers = append(t.observers, observerEntry{id: id, fn: fn})
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		for i, e := range t.observers {
			if e.id == id {
				t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Query projects q.Columns from the kind's table. With no explicit range the
// active window applies, on the window's own basis.
func (t *Telemetry) Query(kind format.RecordKind, q Query) (*Projection, error) {
	tbl, err := t.Table(kind)
	if err != nil {
		return nil, err
	}

	basis, r := q.Basis, q.Range
	if r == nil && !q.Unfiltered {
		t.windowMu.RLock()
		w := t.window
		t.windowMu.RUnlock()
		if w.Bounded {
			basis, r = w.Basis, &w.Range
		}
	}

	return tbl.Select(q.Columns, basis, r)
}

// Builder accumulates decoded samples into tables.
type Builder struct {
	tables map[format.RecordKind]*Table
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	b := &Builder{tables: make(map[format.RecordKind]*Table, len(format.RecordKinds))}
	for _, kind := range format.RecordKinds {
		b.tables[kind] = newTable(kind)
	}

	return b
}

// Append adds s as a row of its kind's table.
func (b *Builder) Append(s section.Sample) error {
	tbl, ok := b.tables[s.Kind]
	if !ok {
		return fmt.Errorf("%w: %d", errs.ErrUnknownRecordKind, s.Kind)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	tbl.append(s)

	return nil
}

// Len returns the number of rows appended for kind.
func (b *Builder) Len(kind format.RecordKind) int {
	if tbl, ok := b.tables[kind]; ok {
		return tbl.Len()
	}

	return 0
}

// Build returns the Telemetry. The builder must not be used afterwards.
func (b *Builder) Build() *Telemetry {
	tel := &Telemetry{tables: b.tables}
	b.tables = nil

	return tel
}
