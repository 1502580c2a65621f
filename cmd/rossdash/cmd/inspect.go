package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arloliu/rossdash"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/section"
	"github.com/arloliu/rossdash/table"
)

// Print the source, row counts and time spans of the telemetry file.
func summaryCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize the telemetry file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tel, src, err := a.open()
			if err != nil {
				return err
			}

			return writeSummary(cmd.OutOrStdout(), tel, src)
		},
	}
}

func writeSummary(out io.Writer, tel *table.Telemetry, src rossdash.Source) error {
	fmt.Fprintf(out, "source:      %s (%s)\n", src.Path, src.Format)
	fmt.Fprintf(out, "fingerprint: %016x\n", src.Fingerprint)
	switch src.Format {
	case rossdash.FormatLog:
		fmt.Fprintf(out, "compression: %s\n", src.Stats.Compression)
		fmt.Fprintf(out, "bytes:       %d\n", src.Stats.BytesRead)
		if src.Stats.Skipped > 0 {
			fmt.Fprintf(out, "skipped:     %d records (%d bytes)\n", src.Stats.Skipped, src.Stats.SkippedBytes)
		}
	case rossdash.FormatSnapshot:
		fmt.Fprintf(out, "compression: %s\n", src.Snapshot.Compression)
		fmt.Fprintf(out, "created:     %s\n", src.Snapshot.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tROWS\tIDS\tVIRTUAL TIME\tREAL TIME")
	for _, tbl := range tel.Tables() {
		distinct := "-"
		if ids, err := tbl.DistinctIDs(entityColumn(tbl.Kind())); err == nil {
			distinct = strconv.Itoa(len(ids))
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", tbl.Kind(), tbl.Len(), distinct,
			spanString(tbl, format.VirtualTime), spanString(tbl, format.RealTime))
	}

	return tw.Flush()
}

// entityColumn names the id column of kind.
func entityColumn(kind format.RecordKind) string {
	switch kind {
	case format.KindKP:
		return section.ColumnKPID
	case format.KindLP:
		return section.ColumnLPID
	default:
		return section.ColumnPEID
	}
}

func spanString(tbl *table.Table, basis format.TimeBasis) string {
	span, ok := tbl.Span(basis)
	if !ok {
		return "-"
	}

	return fmt.Sprintf("[%g, %g]", span.Min, span.Max)
}

// List the columns of one record kind.
func columnsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns <pe|kp|lp>",
		Short: "List the columns of a record kind.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := format.ParseRecordKind(args[0])
			if err != nil {
				return err
			}

			// The catalog is fixed per kind, so an empty table answers
			// without reading the data file.
			empty, err := table.NewTelemetry(nil, nil, nil)
			if err != nil {
				return err
			}
			tbl, err := empty.Table(kind)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTITLE\tTYPE\tMETRIC")
			metrics := make(map[string]bool)
			for _, name := range tbl.MetricColumns() {
				metrics[name] = true
			}
			for _, info := range tbl.ColumnInfos() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", info.Name, info.Title, info.Type, metrics[info.Name])
			}

			return tw.Flush()
		},
	}

	return cmd
}
