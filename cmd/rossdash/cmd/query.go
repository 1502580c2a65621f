package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/server"
	"github.com/arloliu/rossdash/table"
)

// Print the rows of one record kind, optionally restricted to a time range.
func queryCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <pe|kp|lp>",
		Short: "Print table rows as CSV or JSON.",
		Long: `Print table rows as CSV or JSON.

--min and --max bound the time column selected by --basis, inclusive on both
ends. Giving only one of them leaves the other side open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := format.ParseRecordKind(args[0])
			if err != nil {
				return err
			}
			q, err := queryFromFlags(cmd)
			if err != nil {
				return err
			}
			outFormat, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			tel, _, err := a.open()
			if err != nil {
				return err
			}
			proj, err := tel.Query(kind, q)
			if err != nil {
				return err
			}
			a.log.WithField("rows", proj.Len()).Debug("query done")

			switch strings.ToLower(outFormat) {
			case "csv":
				return writeCSV(cmd.OutOrStdout(), proj)
			case "json":
				return writeJSON(cmd.OutOrStdout(), proj)
			default:
				return fmt.Errorf("unknown output format %q", outFormat)
			}
		},
	}

	cmd.Flags().StringSlice("columns", nil, "columns to print (default all)")
	cmd.Flags().String("basis", "virtual_time", "time column the range applies to: virtual_time or real_time")
	cmd.Flags().Float64("min", 0, "lower time bound")
	cmd.Flags().Float64("max", 0, "upper time bound")
	cmd.Flags().String("format", "csv", "output format: csv or json")

	return cmd
}

func queryFromFlags(cmd *cobra.Command) (table.Query, error) {
	flags := cmd.Flags()

	var q table.Query
	var err error
	if q.Columns, err = flags.GetStringSlice("columns"); err != nil {
		return q, err
	}
	basis, err := flags.GetString("basis")
	if err != nil {
		return q, err
	}
	if q.Basis, err = format.ParseTimeBasis(basis); err != nil {
		return q, err
	}

	if !flags.Changed("min") && !flags.Changed("max") {
		return q, nil
	}
	r := table.TimeRange{Min: math.Inf(-1), Max: math.Inf(1)}
	if flags.Changed("min") {
		if r.Min, err = flags.GetFloat64("min"); err != nil {
			return q, err
		}
	}
	if flags.Changed("max") {
		if r.Max, err = flags.GetFloat64("max"); err != nil {
			return q, err
		}
	}
	q.Range = &r

	return q, nil
}

func writeCSV(out io.Writer, proj *table.Projection) error {
	w := csv.NewWriter(out)
	if err := w.Write(proj.ColumnNames()); err != nil {
		return err
	}

	record := make([]string, len(proj.Columns()))
	for _, row := range proj.All() {
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()

	return w.Error()
}

type queryOutput struct {
	Columns []string         `json:"columns"`
	Rows    [][]server.Float `json:"rows"`
}

func writeJSON(out io.Writer, proj *table.Projection) error {
	res := queryOutput{Columns: proj.ColumnNames(), Rows: make([][]server.Float, 0, proj.Len())}
	for _, row := range proj.All() {
		values := make([]server.Float, len(row))
		for i, v := range row {
			values[i] = server.Float(v)
		}
		res.Rows = append(res.Rows, values)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(res)
}
