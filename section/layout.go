package section

import (
	"fmt"

	"github.com/arloliu/rossdash/format"
)

// Field is a named, fixed-width value inside a header or payload.
type Field struct {
	Name string
	Type format.ColumnType
}

// Layout describes one payload shape. ROSS always emits the unsigned counters
// first and the single-precision floats after them.
type Layout struct {
	Kind   format.RecordKind
	Uints  []string
	Floats []string
	size   int
}

func newLayout(kind format.RecordKind, uints, floats []string) Layout {
	l := Layout{Kind: kind, Uints: uints, Floats: floats}
	for _, f := range l.Fields() {
		l.size += f.Type.Size()
	}

	return l
}

// Size returns the payload length in bytes.
func (l Layout) Size() int {
	return l.size
}

// Fields returns the payload fields in declared order.
func (l Layout) Fields() []Field {
	fields := make([]Field, 0, len(l.Uints)+len(l.Floats))
	for _, name := range l.Uints {
		fields = append(fields, Field{Name: name, Type: format.TypeUint32})
	}
	for _, name := range l.Floats {
		fields = append(fields, Field{Name: name, Type: format.TypeFloat32})
	}

	return fields
}

// FieldCount returns the number of payload fields.
func (l Layout) FieldCount() int {
	return len(l.Uints) + len(l.Floats)
}

// Column names shared by every record kind.
const (
	ColumnPEID        = "PE_ID"
	ColumnKPID        = "KP_ID"
	ColumnLPID        = "LP_ID"
	ColumnVirtualTime = "virtual_time"
	ColumnRealTime    = "real_time"
)

// headerFields is the sample header in declared order.
var headerFields = []Field{
	{Name: "flag", Type: format.TypeInt32},
	{Name: "payload_byte_length", Type: format.TypeInt32},
	{Name: ColumnVirtualTime, Type: format.TypeFloat64},
	{Name: ColumnRealTime, Type: format.TypeFloat64},
}

var (
	// PELayout mirrors st_pe_stats from ROSS st-instrumentation.h.
	PELayout = newLayout(format.KindPE,
		[]string{
			ColumnPEID,
			"events_processed",
			"events_aborted",
			"events_rolled_back",
			"total_rollbacks",
			"secondary_rollbacks",
			"fossil_collection_attempts",
			"pq_queue_size",
			"network_sends",
			"network_reads",
			"number_gvt",
			"pe_event_ties",
			"all_reduce",
		},
		[]string{
			"efficiency",
			"network_read_time",
			"network_other_time",
			"gvt_time",
			"fossil_collect_time",
			"event_abort_time",
			"event_process_time",
			"pq_time",
			"rollback_time",
			"cancel_q_time",
			"avl_time",
			"buddy_time",
			"lz4_time",
		},
	)

	// KPLayout mirrors st_kp_stats.
	KPLayout = newLayout(format.KindKP,
		[]string{
			ColumnPEID,
			ColumnKPID,
			"events_processed",
			"events_abort",
			"events_rolled_back",
			"total_rollbacks",
			"secondary_rollbacks",
			"network_sends",
			"network_reads",
		},
		[]string{
			"time_ahead_gvt",
			"efficiency",
		},
	)

	// LPLayout mirrors st_lp_stats.
	LPLayout = newLayout(format.KindLP,
		[]string{
			ColumnPEID,
			ColumnKPID,
			ColumnLPID,
			"events_processed",
			"events_abort",
			"events_rolled_back",
			"network_sends",
			"network_reads",
		},
		[]string{
			"efficiency",
		},
	)
)

var (
	HeaderSize = fieldsSize(headerFields) // HeaderSize is the sample header length in bytes.
	PESize     = PELayout.Size()          // PESize is the PE payload length in bytes.
	KPSize     = KPLayout.Size()          // KPSize is the KP payload length in bytes.
	LPSize     = LPLayout.Size()          // LPSize is the LP payload length in bytes.
)

func init() {
	if err := checkDistinctSizes(PELayout, KPLayout, LPLayout); err != nil {
		panic(err)
	}
}

func fieldsSize(fields []Field) int {
	n := 0
	for _, f := range fields {
		n += f.Type.Size()
	}

	return n
}

// checkDistinctSizes fails when two layouts share a payload length, since the
// length is the only thing telling them apart on disk.
func checkDistinctSizes(layouts ...Layout) error {
	seen := make(map[int]format.RecordKind, len(layouts))
	for _, l := range layouts {
		if other, ok := seen[l.Size()]; ok {
			return fmt.Errorf("section: %s and %s payloads are both %d bytes", other, l.Kind, l.Size())
		}
		seen[l.Size()] = l.Kind
	}

	return nil
}

// LayoutFor returns the payload layout of a record kind.
func LayoutFor(kind format.RecordKind) (Layout, bool) {
	switch kind {
	case format.KindPE:
		return PELayout, true
	case format.KindKP:
		return KPLayout, true
	case format.KindLP:
		return LPLayout, true
	default:
		return Layout{}, false
	}
}

// KindForPayloadLength maps a header's payload_byte_length to a record kind.
func KindForPayloadLength(n int) (format.RecordKind, bool) {
	switch n {
	case PESize:
		return format.KindPE, true
	case KPSize:
		return format.KindKP, true
	case LPSize:
		return format.KindLP, true
	default:
		return 0, false
	}
}
