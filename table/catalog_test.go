package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rossdash/format"
)

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"events_processed": "Events Processed",
		"PE_ID":            "PE ID",
		"KP_ID":            "KP ID",
		"virtual_time":     "Virtual Time",
		"number_gvt":       "Number GVT",
		"pq_queue_size":    "PQ Queue Size",
		"cancel_q_time":    "Cancel Q Time",
		"lz4_time":         "LZ4 Time",
		"time_ahead_gvt":   "Time Ahead GVT",
		"":                 "",
	}
	for in, want := range cases {
		require.Equal(t, want, Title(in), in)
	}
}

func TestColumnInfos(t *testing.T) {
	tel := buildTelemetry(t)
	lp, err := tel.Table(format.KindLP)
	require.NoError(t, err)

	infos := lp.ColumnInfos()
	require.Len(t, infos, 11)
	require.Equal(t, ColumnInfo{Name: "LP_ID", Title: "LP ID", Type: format.TypeUint32.String()}, infos[2])
	require.Equal(t, ColumnInfo{Name: "efficiency", Title: "Efficiency", Type: format.TypeFloat32.String()}, infos[8])
	require.Equal(t, "Real Time", infos[10].Title)
}

func TestMetricColumns(t *testing.T) {
	require.Equal(t, []string{
		"events_processed", "events_abort", "events_rolled_back", "network_sends", "network_reads", "efficiency",
	}, MetricColumns(format.KindLP))

	pe := MetricColumns(format.KindPE)
	require.Len(t, pe, 25)
	require.Contains(t, pe, DefaultTimePlotColumn)
	require.Contains(t, pe, DefaultScatterY)
	require.NotContains(t, pe, "PE_ID")
	require.NotContains(t, pe, "virtual_time")

	tel := buildTelemetry(t)
	kp, _ := tel.Table(format.KindKP)
	require.Equal(t, MetricColumns(format.KindKP), kp.MetricColumns())
}

func TestParallelCoordinateColumnsExistOnPE(t *testing.T) {
	tel := buildTelemetry(t)
	proj, err := tel.Query(format.KindPE, Query{Columns: ParallelCoordinateColumns})
	require.NoError(t, err)
	require.Equal(t, ParallelCoordinateColumns, proj.ColumnNames())
}
