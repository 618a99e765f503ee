// Package cmd provides the command line interface for inetd-gen
package cmd

import (
	"github.com/ixops/inetd-gen/internal/config"
	"github.com/ixops/inetd-gen/internal/db"
	"github.com/ixops/inetd-gen/internal/log"

	"github.com/spf13/cobra"
)

// RootCommand represents the root command for the inetd-gen CLI.
type RootCommand struct{}

var (
	cfg            *config.Settings
	configFilePath string
	dbPath         string
	verbose        bool
)

// GetCobraCommand returns the cobra root command for the inetd-gen CLI.
func (c *RootCommand) GetCobraCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inetd-gen",
		Short: "inetd-gen regenerates the services and inetd configuration files from stored TFTP settings.",
		Long: `inetd-gen regenerates /etc/services and /etc/inetd.conf by merging their
base templates with entries derived from the TFTP settings database. It is
invoked by the service lifecycle framework at system bring-up, before the
network-service dispatcher starts.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if configFilePath != "" {
				config.SetConfigFilePath(configFilePath)
			}
			cfg = config.InitConfig()
			log.Init(verbose)

			if verbose {
				cfg.Verbose = verbose
			}

			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			// Migration failure is not fatal here: generate must still run so
			// an unreachable store leaves its failure marker behind.
			if err := db.Up(*cfg); err != nil {
				log.GetLogger().Warn("Failed to apply database migrations", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFilePath, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Path to the settings database file")

	rootCmd.AddCommand(
		(&GenerateCommand{}).GetCobraCommand(),
		(&StopCommand{}).GetCobraCommand(),
		(&StatusCommand{}).GetCobraCommand(),
		(&RestartCommand{}).GetCobraCommand(),
		(&DoctorCommand{}).GetCobraCommand(),
		(&ConfigCommand{}).GetCobraCommand(),
		(&VersionCommand{}).GetCobraCommand(),
	)

	return rootCmd
}
