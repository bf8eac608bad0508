package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/store"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a control network, optionally in another version",
	Long: `Read a control network and write it again. The output keeps the input's
network id, target, description, user and creation time unless a flag
overrides them; version and header start byte come from the config file.

Point logs cannot be written and are dropped; each dropped log is reported.

Examples:
  cnet convert old.net new.net --version 5
  cnet convert in.net out.net --prefix mars_ --target Mars`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}

		frame, err := store.ReadNetwork(args[0], a.logger)
		if err != nil {
			return err
		}

		opts, err := a.config.Write.WriteOptions()
		if err != nil {
			return err
		}
		opts.NetworkID = frame.Info.NetworkID
		opts.TargetName = frame.Info.TargetName
		opts.Description = frame.Info.Description
		opts.UserName = frame.Info.UserName
		opts.Created = frame.Info.Created
		if err := applyWriteFlags(cmd, &opts); err != nil {
			return err
		}

		diags, err := store.WriteNetwork(frame, args[1], opts, a.logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote %s (version %d, %d points, %d rows)\n",
			args[1], int(opts.Version), len(frame.PointIDs()), frame.Len())
		for _, d := range diags {
			fmt.Fprintf(out, "diagnostic: %s\n", d)
		}
		a.logger.Debug("network converted",
			zap.String("in", args[0]),
			zap.String("out", args[1]),
			zap.Int("diagnostics", len(diags)))
		return nil
	},
}

// applyWriteFlags overrides opts with the write flags the user set
func applyWriteFlags(cmd *cobra.Command, opts *store.WriteOptions) error {
	flags := cmd.Flags()
	if flags.Changed("version") {
		n, _ := flags.GetInt("version")
		v, err := schema.ParseVersion(int64(n))
		if err != nil {
			return err
		}
		opts.Version = v
	}
	if flags.Changed("header-start-byte") {
		opts.HeaderStartByte, _ = flags.GetInt64("header-start-byte")
	}
	strFlags := map[string]*string{
		"network-id":  &opts.NetworkID,
		"target":      &opts.TargetName,
		"description": &opts.Description,
		"user":        &opts.UserName,
		"prefix":      &opts.PointIDPrefix,
		"suffix":      &opts.PointIDSuffix,
	}
	for name, dst := range strFlags {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Int("version", 2, "Output version: 2 or 5")
	convertCmd.Flags().Int64("header-start-byte", store.DefaultHeaderStartByte, "Offset of the binary header")
	convertCmd.Flags().String("network-id", "", "Network id")
	convertCmd.Flags().String("target", "", "Target body name")
	convertCmd.Flags().String("description", "", "Network description")
	convertCmd.Flags().String("user", "", "User name")
	convertCmd.Flags().String("prefix", "", "Prefix added to every point id")
	convertCmd.Flags().String("suffix", "", "Suffix added to every point id")
}
