package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ixops/inetd-gen/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigInitCommand represents the config init command.
type ConfigInitCommand struct{}

// GetCobraCommand returns the cobra command for config init.
func (c *ConfigInitCommand) GetCobraCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a default configuration file",
		Long:  "Create a configuration file populated with the built-in defaults",
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Run(output, force)
		},
		SilenceUsage: true,
	}

	initCmd.Flags().StringVarP(&output, "output", "o", "/etc/inetd-gen/config.yaml", "Where to write the configuration file")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration file")

	return initCmd
}

// Run writes the default configuration to the given path.
func (c *ConfigInitCommand) Run(output string, force bool) error {
	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s, use --force to overwrite", output)
	}

	defaults := &config.Settings{
		ServicesFile:     config.DefaultServicesFile,
		InetdConfFile:    config.DefaultInetdConfFile,
		BaseServicesFile: config.DefaultBaseServicesFile,
		BaseInetdFile:    config.DefaultBaseInetdFile,
		DBPath:           config.DefaultDBPath,
		TftpdPath:        config.DefaultTftpdPath,
		FailureMarker:    config.DefaultFailureMarker,
		InetdUnit:        config.DefaultInetdUnit,
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Configuration file created at %s\n", output)
	return nil
}
