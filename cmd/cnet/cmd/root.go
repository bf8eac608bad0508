/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/config"
	"github.com/ssargent/isiscnet/pkg/di"
)

var container *di.Container

// SetContainer injects the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

// app is the state every command shares, built once per invocation
type app struct {
	config     *config.Config
	configPath string
	logger     *zap.Logger
}

type appKey struct{}

// annotationNoConfig marks commands that run before a config file exists.
const annotationNoConfig = "cnet/no-config"

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("command context not initialized")
	}
	return a, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cnet",
	Short: "Read, write and inspect ISIS control networks",
	Long: `cnet works with ISIS binary control network files (versions 2 and 5).

It can summarize a file, dump its points as rows, export them to Arrow or CSV,
convert between versions, and keep a catalog of networks served over REST.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return errors.New("dependency container not initialized")
		}
		configPath, _ := cmd.Flags().GetString("config")
		logLevel, _ := cmd.Flags().GetString("log-level")

		explicit := configPath != ""
		if !explicit {
			configPath = config.GetDefaultConfigPath()
		}

		cfg := config.DefaultConfig()
		load := explicit || config.ConfigExists(configPath)
		if cmd.Annotations[annotationNoConfig] == "true" {
			load = false
		}
		if load {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, err := container.GetLoggerFactory()(cfg.Logging.Level)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(context.WithValue(ctx, appKey{}, &app{config: cfg, configPath: configPath, logger: logger}))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if a, err := appFrom(cmd); err == nil {
			_ = a.logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}
