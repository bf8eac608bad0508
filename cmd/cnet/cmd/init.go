/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/isiscnet/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with write defaults, the catalog location and a
generated API key for cnet serve.

Examples:
  cnet init
  cnet init --config ./cnet.yaml --catalog ./catalog`,
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		catalogDir, _ := cmd.Flags().GetString("catalog")

		if config.ConfigExists(a.configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", a.configPath)
			return nil
		}

		cfg, err := config.BootstrapConfig(a.configPath, catalogDir)
		if err != nil {
			return err
		}

		cmd.Printf("Configuration written to %s\n", a.configPath)
		cmd.Printf("Catalog directory: %s\n", cfg.Catalog.DataDir)
		cmd.Printf("API key: %s\n", cfg.Server.APIKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("catalog", "", "Catalog directory (default: ./catalog)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
}
