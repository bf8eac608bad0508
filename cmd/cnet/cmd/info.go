package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ssargent/isiscnet/pkg/store"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Summarize a control network file",
	Long: `Summarize a control network file: version, byte layout, network metadata,
point and measure counts, and type breakdowns. Every point is decoded, so
corrupt messages and label count mismatches are reported.

Examples:
  cnet info network.net
  cnet info network.net --format json --samples 5
  cnet info network.net --strict`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		samples, _ := cmd.Flags().GetInt("samples")
		strict, _ := cmd.Flags().GetBool("strict")

		s, err := store.Open(store.Config{FilePath: args[0], Mode: store.ModeRead, Logger: a.logger})
		if err != nil {
			return err
		}
		defer s.Close()

		result, err := s.Explain(cmd.Context(), store.ExplainOptions{WithSamples: samples, StrictCount: strict})
		if err != nil {
			return err
		}
		return printExplain(cmd.OutOrStdout(), format, result)
	},
}

func printExplain(w io.Writer, format string, r *store.ExplainResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case "text":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Version:\t%d\n", int(r.Global.Version))
	fmt.Fprintf(tw, "File size:\t%d bytes\n", r.Global.FileSizeBytes)
	fmt.Fprintf(tw, "Header:\t%d bytes at %d\n", r.Layout.HeaderBytes, r.Layout.HeaderStartByte)
	fmt.Fprintf(tw, "Points region:\t%d bytes at %d\n", r.Layout.PointsBytes, r.Layout.PointsStartByte)
	fmt.Fprintf(tw, "Network:\t%s\n", r.Info.NetworkID)
	fmt.Fprintf(tw, "Target:\t%s\n", r.Info.TargetName)
	fmt.Fprintf(tw, "User:\t%s\n", r.Info.UserName)
	fmt.Fprintf(tw, "Created:\t%s\n", r.Info.Created)
	fmt.Fprintf(tw, "Last modified:\t%s\n", r.Info.LastModified)
	fmt.Fprintf(tw, "Description:\t%s\n", r.Info.Description)
	fmt.Fprintf(tw, "Points:\t%d (%d ignored)\n", r.Global.Points, r.Global.IgnoredPoints)
	fmt.Fprintf(tw, "Measures:\t%d (%d ignored)\n", r.Global.Measures, r.Global.IgnoredMeasures)
	for _, line := range countLines("Point types", r.PointTypes) {
		fmt.Fprint(tw, line)
	}
	for _, line := range countLines("Measure types", r.MeasureTypes) {
		fmt.Fprint(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Diagnostics.Samples) > 0 {
		fmt.Fprintln(w, "\nSamples:")
		sw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(sw, "  ID\tTYPE\tMEASURES\tREFERENCE")
		for _, s := range r.Diagnostics.Samples {
			fmt.Fprintf(sw, "  %s\t%s\t%d\t%d\n", s.PointID, s.Type, s.Measures, s.ReferenceIndex)
		}
		if err := sw.Flush(); err != nil {
			return err
		}
	}
	for _, d := range r.Diagnostics.Items {
		fmt.Fprintf(w, "diagnostic: %s\n", d)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func countLines(title string, counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for i, name := range names {
		label := ""
		if i == 0 {
			label = title + ":"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s %d\n", label, name, counts[name]))
	}
	return lines
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")
	infoCmd.Flags().Int("samples", 0, "Number of points to list individually")
	infoCmd.Flags().Bool("strict", false, "Fail when the label counts disagree with the points")
}
