package table

import (
	"strings"

	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/section"
)

// ColumnInfo describes one table column for a front end.
type ColumnInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Default columns of the standard dashboard views.
const (
	DefaultTimePlotColumn = "events_processed"
	DefaultScatterX       = "events_processed"
	DefaultScatterY       = "events_rolled_back"
)

// ParallelCoordinateColumns are the default dimensions of the PE parallel
// coordinates view.
var ParallelCoordinateColumns = []string{
	section.ColumnPEID,
	"events_processed",
	"events_rolled_back",
	"total_rollbacks",
	"secondary_rollbacks",
}

// acronyms are upper-cased whole in titles.
var acronyms = map[string]bool{
	"id": true, "pe": true, "kp": true, "lp": true,
	"gvt": true, "pq": true, "avl": true, "lz4": true, "q": true,
}

// Title turns a column name into a display title: underscores become spaces,
// words are capitalized and known acronyms upper-cased.
//
//	events_processed -> Events Processed
//	PE_ID            -> PE ID
//	cancel_q_time    -> Cancel Q Time
func Title(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		lower := strings.ToLower(w)
		switch {
		case w == "":
		case acronyms[lower]:
			words[i] = strings.ToUpper(w)
		default:
			words[i] = strings.ToUpper(lower[:1]) + lower[1:]
		}
	}

	return strings.Join(words, " ")
}

// IsIdentifier reports whether name is one of the entity id columns.
func IsIdentifier(name string) bool {
	switch name {
	case section.ColumnPEID, section.ColumnKPID, section.ColumnLPID:
		return true
	}

	return false
}

// IsTime reports whether name is one of the header timestamp columns.
func IsTime(name string) bool {
	return name == section.ColumnVirtualTime || name == section.ColumnRealTime
}

// ColumnInfos describes every column of the table in schema order.
func (t *Table) ColumnInfos() []ColumnInfo {
	infos := make([]ColumnInfo, len(t.columns))
	for i, c := range t.columns {
		infos[i] = ColumnInfo{Name: c.Name(), Title: Title(c.Name()), Type: c.Type().String()}
	}

	return infos
}

// MetricColumns lists the columns that make sense as a plotted metric,
// excluding identifiers and timestamps.
func (t *Table) MetricColumns() []string {
	return MetricColumns(t.kind)
}

// MetricColumns lists the metric columns of a kind's schema.
func MetricColumns(kind format.RecordKind) []string {
	var out []string
	for _, f := range Schema(kind) {
		if IsIdentifier(f.Name) || IsTime(f.Name) {
			continue
		}
		out = append(out, f.Name)
	}

	return out
}
