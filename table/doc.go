// Package table holds decoded ROSS telemetry in memory.
//
// A Telemetry has one columnar Table per record kind (PE, KP, LP). Tables are
// built once by a Builder while a log is decoded and never change afterwards.
// The only mutable state is the active time window, which narrows queries that
// do not name their own range:
//
//	tel.SetTimeRange(format.VirtualTime, 10, 20)
//	proj, err := tel.Query(format.KindPE, table.Query{Columns: []string{"events_processed"}})
//	for i, row := range proj.All() {
//		...
//	}
//	tel.ResetTimeRange()
//
// Observers registered with Subscribe are told about every window change.
package table
