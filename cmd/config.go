package cmd

import (
	"github.com/spf13/cobra"
)

// ConfigCommand represents the config command group.
type ConfigCommand struct{}

// GetCobraCommand returns the cobra command for config operations.
func (c *ConfigCommand) GetCobraCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage inetd-gen configuration",
	}

	configCmd.AddCommand(
		(&ConfigShowCommand{}).GetCobraCommand(),
		(&ConfigInitCommand{}).GetCobraCommand(),
	)

	return configCmd
}
