package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// Build information set by goreleaser.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// VersionCommand represents the version command.
type VersionCommand struct{}

// GetCobraCommand returns the cobra command for displaying version information.
func (c *VersionCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("inetd-gen version %s\n", Version)
			fmt.Printf("  commit: %s\n", Commit)
			fmt.Printf("  built: %s\n", Date)
			fmt.Printf("  go: %s\n", runtime.Version())

			c.checkForUpdates()
		},
	}
}

// checkForUpdates checks if a newer version is available and prints a message if so.
func (c *VersionCommand) checkForUpdates() {
	// Skip update check for development builds
	if Version == "dev" {
		return
	}

	latest, found, err := selfupdate.DetectLatest(context.Background(), selfupdate.ParseSlug("ixops/inetd-gen"))
	if err != nil {
		fmt.Printf("Failed to check for updates: %v\n", err)
		return
	}

	if !found || latest.LessOrEqual(Version) {
		return
	}

	fmt.Printf("\nUpdate available: %s\n", latest.Version())
}
