package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/export"
	"github.com/ssargent/isiscnet/pkg/query"
	"github.com/ssargent/isiscnet/pkg/store"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a control network as Arrow or CSV",
	Long: `Export the measure rows of a control network as an Arrow IPC stream or CSV.

Examples:
  cnet export network.net --format arrow -o network.arrows
  cnet export network.net --format csv > network.csv
  cnet export network.net --where "ignore=false" -o active.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		where, _ := cmd.Flags().GetStringArray("where")

		var write func(io.Writer) error
		frame, err := store.ReadNetwork(args[0], a.logger)
		if err != nil {
			return err
		}
		if frame, err = query.Filter(cmd.Context(), frame, where); err != nil {
			return err
		}
		switch format {
		case "arrow":
			write = func(w io.Writer) error { return export.WriteArrow(w, frame) }
		case "csv":
			write = func(w io.Writer) error { return export.WriteCSV(w, frame) }
		default:
			return fmt.Errorf("unknown format %q (want arrow or csv)", format)
		}

		if output == "" || output == "-" {
			return write(cmd.OutOrStdout())
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		if err := write(f); err != nil {
			return err
		}
		a.logger.Info("network exported",
			zap.String("output", output),
			zap.String("format", format),
			zap.Int("rows", frame.Len()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: arrow or csv")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringArray("where", nil, "Keep rows matching a condition such as ignore=false (repeatable)")
}
