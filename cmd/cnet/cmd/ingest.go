package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ssargent/isiscnet/pkg/api"
	"github.com/ssargent/isiscnet/pkg/store"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Add control networks to the catalog",
	Long: `Read control network files and store their points in the pebble catalog,
where cnet serve can query them.

Examples:
  cnet ingest network.net
  cnet ingest --catalog ./catalog a.net b.net`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		cat, err := openCatalog(cmd, a)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, cat.Close()) }()

		out := cmd.OutOrStdout()
		for _, path := range args {
			frame, err := store.ReadNetwork(path, a.logger)
			if err != nil {
				return err
			}
			entry, err := cat.Ingest(frame, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			fmt.Fprintf(out, "%s\t%s\t%d points\t%d measures\n", entry.Key, path, entry.Points, entry.Measures)
		}
		return nil
	},
}

// openCatalog opens the catalog named by --catalog or the config file
func openCatalog(cmd *cobra.Command, a *app) (api.CatalogCloser, error) {
	dir := a.config.Catalog.DataDir
	if cmd.Flags().Changed("catalog") {
		dir, _ = cmd.Flags().GetString("catalog")
	}
	return container.GetCatalogFactory().OpenCatalog(dir, a.logger)
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("catalog", "", "Catalog directory (default: from config)")
}
