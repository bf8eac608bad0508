/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/isiscnet/pkg/config"
)

const serviceName = "cnet.service"

// Overridden in tests.
var (
	unitDir    = "/etc/systemd/system"
	geteuid    = os.Geteuid
	runCommand = func(cmd *cobra.Command, name string, args ...string) error {
		c := exec.CommandContext(cmd.Context(), name, args...)
		c.Stdout = cmd.OutOrStdout()
		c.Stderr = cmd.ErrOrStderr()
		return c.Run()
	}
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=ISIS control network catalog server
After=network-online.target
Wants=network-online.target

[Service]
User={{.User}}
Group={{.User}}
ExecStart={{.Binary}} serve --config {{.ConfigPath}}
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths={{.CatalogDir}}
ReadWritePaths={{.ConfigDir}}

[Install]
WantedBy=multi-user.target
`))

type unitParams struct {
	User       string
	Binary     string
	ConfigPath string
	ConfigDir  string
	CatalogDir string
}

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the catalog server as a systemd service",
	Long: `Manage cnet serve as a systemd service. The unit runs with a private umask,
no new privileges and write access only to the catalog and config directories.`,
}

// unitServiceCmd prints the unit file without installing it
var unitServiceCmd = &cobra.Command{
	Use:   "unit",
	Short: "Print the systemd unit for the catalog server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		p, err := unitParamsFor(cmd, a.configPath, a.config)
		if err != nil {
			return err
		}
		return writeUnit(cmd.OutOrStdout(), p)
	},
}

// installServiceCmd represents the service install command
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the catalog server as a systemd service",
	Long: `Install cnet serve as a systemd service.

This will:
- Create a configuration with an API key if none exists
- Write the systemd unit file
- Enable and optionally start the service

Examples:
  sudo cnet service install
  sudo cnet service install --catalog /var/lib/cnet --user cnet`,
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		catalogDir, _ := cmd.Flags().GetString("catalog")
		startNow, _ := cmd.Flags().GetBool("start")

		if geteuid() != 0 {
			return errors.New("service install requires root privileges (run with sudo)")
		}

		var cfg *config.Config
		if config.ConfigExists(a.configPath) {
			if cfg, err = config.LoadConfig(a.configPath); err != nil {
				return err
			}
			if catalogDir != "" {
				cfg.Catalog.DataDir = catalogDir
				if err := config.SaveConfig(cfg, a.configPath); err != nil {
					return err
				}
			}
		} else {
			if cfg, err = config.BootstrapConfig(a.configPath, catalogDir); err != nil {
				return err
			}
			cmd.Printf("Created configuration at %s\n", a.configPath)
		}

		p, err := unitParamsFor(cmd, a.configPath, cfg)
		if err != nil {
			return err
		}
		var unit bytes.Buffer
		if err := writeUnit(&unit, p); err != nil {
			return err
		}
		unitPath := filepath.Join(unitDir, serviceName)
		if err := os.WriteFile(unitPath, unit.Bytes(), 0600); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		a.logger.Info("unit file written", zap.String("path", unitPath))

		if err := runCommand(cmd, "systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		if err := runCommand(cmd, "systemctl", "enable", serviceName); err != nil {
			return fmt.Errorf("failed to enable service: %w", err)
		}
		if startNow {
			if err := runCommand(cmd, "systemctl", "start", serviceName); err != nil {
				return fmt.Errorf("failed to start service: %w", err)
			}
		}

		cmd.Printf("Service: %s\n", serviceName)
		cmd.Printf("Config: %s\n", p.ConfigPath)
		cmd.Printf("Catalog: %s\n", p.CatalogDir)
		cmd.Printf("Port: %d\n", cfg.Server.Port)
		if !startNow {
			cmd.Printf("To start the service: sudo systemctl start %s\n", serviceName)
		}
		cmd.Printf("To view logs: sudo journalctl -u %s -f\n", serviceName)
		return nil
	},
}

// uninstallServiceCmd represents the service uninstall command
var uninstallServiceCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the catalog server service",
	Long:  `Stop, disable and remove the systemd unit. Configuration and catalog data are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if geteuid() != 0 {
			return errors.New("service uninstall requires root privileges (run with sudo)")
		}
		// Already stopped is fine.
		_ = runCommand(cmd, "systemctl", "stop", serviceName)
		if err := runCommand(cmd, "systemctl", "disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}

		unitPath := filepath.Join(unitDir, serviceName)
		if err := os.Remove(unitPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := runCommand(cmd, "systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		cmd.Printf("Service %s uninstalled\n", serviceName)
		return nil
	},
}

// systemctlCmd builds a lifecycle subcommand that forwards to systemctl.
func systemctlCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, "systemctl", action, serviceName)
		},
	}
}

// logsServiceCmd represents the service logs command
var logsServiceCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the service logs",
	Long: `Show the catalog server logs using journalctl.

Examples:
  cnet service logs
  cnet service logs -f`,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")

		journalArgs := []string{"-u", serviceName}
		if follow {
			journalArgs = append(journalArgs, "-f")
		}
		if lines > 0 {
			journalArgs = append(journalArgs, fmt.Sprintf("-n%d", lines))
		}
		return runCommand(cmd, "journalctl", journalArgs...)
	},
}

func unitParamsFor(cmd *cobra.Command, configPath string, cfg *config.Config) (unitParams, error) {
	user, _ := cmd.Flags().GetString("user")
	binary, _ := cmd.Flags().GetString("binary")

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return unitParams{}, err
	}
	absCatalog, err := filepath.Abs(cfg.Catalog.DataDir)
	if err != nil {
		return unitParams{}, err
	}
	return unitParams{
		User:       user,
		Binary:     binary,
		ConfigPath: absConfig,
		ConfigDir:  filepath.Dir(absConfig),
		CatalogDir: absCatalog,
	}, nil
}

func writeUnit(w io.Writer, p unitParams) error {
	return unitTemplate.Execute(w, p)
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(unitServiceCmd)
	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(uninstallServiceCmd)
	serviceCmd.AddCommand(systemctlCmd("start", "Start the service"))
	serviceCmd.AddCommand(systemctlCmd("stop", "Stop the service"))
	serviceCmd.AddCommand(systemctlCmd("restart", "Restart the service"))
	serviceCmd.AddCommand(systemctlCmd("status", "Show the service status"))
	serviceCmd.AddCommand(logsServiceCmd)

	for _, c := range []*cobra.Command{unitServiceCmd, installServiceCmd} {
		c.Flags().String("user", "cnet", "User to run the service as")
		c.Flags().String("binary", "/usr/local/bin/cnet", "Path of the installed cnet binary")
	}
	installServiceCmd.Flags().String("catalog", "", "Catalog directory for the service")
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	logsServiceCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsServiceCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
}
