package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/isiscnet/pkg/export"
	"github.com/ssargent/isiscnet/pkg/query"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/store"
	"github.com/ssargent/isiscnet/pkg/table"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the measures of a control network as rows",
	Long: `Print a control network as one row per measure, each row carrying the
attributes of its point.

Examples:
  cnet dump network.net --limit 20
  cnet dump network.net --columns id,serialnumber,sample,line
  cnet dump network.net --point tie_0001 --format json
  cnet dump network.net --where "serialnumber=MRO/CTX/1" --where "sample>=100"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")
		columns, _ := cmd.Flags().GetStringSlice("columns")
		pointID, _ := cmd.Flags().GetString("point")
		where, _ := cmd.Flags().GetStringArray("where")

		var frame *table.Frame
		if pointID != "" {
			frame, err = readPoint(args[0], pointID, a)
		} else {
			frame, err = store.ReadNetwork(args[0], a.logger)
		}
		if err != nil {
			return err
		}
		if frame, err = query.Filter(cmd.Context(), frame, where); err != nil {
			return err
		}

		if len(columns) == 0 {
			columns = frame.Columns
		}
		rows := frame.Rows
		if limit > 0 && limit < len(rows) {
			rows = rows[:limit]
		}

		switch format {
		case "table":
			return writeTable(cmd.OutOrStdout(), columns, rows)
		case "json":
			return writeJSONRows(cmd.OutOrStdout(), columns, rows)
		}
		return fmt.Errorf("unknown format %q (want table or json)", format)
	},
}

// readPoint indexes the file and decodes only the requested point
func readPoint(path, pointID string, a *app) (*table.Frame, error) {
	s, err := store.Open(store.Config{FilePath: path, Mode: store.ModeRead, Logger: a.logger})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	entry, ok := idx.Get(pointID)
	if !ok {
		return nil, fmt.Errorf("point %q not found in %s", pointID, path)
	}
	p, err := s.ReadPoint(entry)
	if err != nil {
		return nil, err
	}
	sch, err := schema.Lookup(s.Layout().Version)
	if err != nil {
		return nil, err
	}
	m := table.NewMapper(sch)
	return &table.Frame{
		Version: sch.Version,
		Columns: m.Columns(),
		Rows:    m.Flatten([]schema.Point{p}),
		Info:    s.Info(),
	}, nil
}

func writeTable(w io.Writer, columns []string, rows []table.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			cell, err := export.FormatCell(row[col])
			if err != nil {
				return err
			}
			cells[i] = cell
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeJSONRows(w io.Writer, columns []string, rows []table.Row) error {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, len(columns))
		for _, col := range columns {
			if v, ok := row.Get(col); ok {
				m[col] = v
			}
		}
		out[i] = m
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringP("format", "f", "table", "Output format: table or json")
	dumpCmd.Flags().IntP("limit", "n", 0, "Maximum number of rows, 0 for all")
	dumpCmd.Flags().StringSlice("columns", nil, "Columns to print (default: all)")
	dumpCmd.Flags().String("point", "", "Print only the measures of this point")
	dumpCmd.Flags().StringArray("where", nil, "Keep rows matching a condition such as sample>=100 (repeatable, all must match)")
}
