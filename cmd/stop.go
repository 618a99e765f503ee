package cmd

import (
	"github.com/ixops/inetd-gen/internal/log"

	"github.com/spf13/cobra"
)

// StopCommand represents the stop command. The lifecycle framework expects a
// paired stop action for every start action; generated files stay in place
// until the next generate run, so there is nothing to undo.
type StopCommand struct{}

// GetCobraCommand returns the cobra command for the stop action.
func (c *StopCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Lifecycle stop action (no-op)",
		Long: `The paired stop action for the lifecycle framework. Generated configuration
files are left in place; this command always succeeds without touching
anything.`,
		Run: func(_ *cobra.Command, _ []string) {
			log.GetLogger().Debug("Stop requested, nothing to do")
		},
	}
}
