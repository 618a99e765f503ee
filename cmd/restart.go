package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ixops/inetd-gen/internal/inetd"
	"github.com/ixops/inetd-gen/internal/log"
	"github.com/spf13/cobra"
)

// RestartCommand represents the restart command. Reloading the dispatcher
// after a generate run belongs to the service-management framework; this
// command gives operators the same lever.
type RestartCommand struct{}

// GetCobraCommand returns the cobra command for restarting the inetd unit.
func (c *RestartCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the inetd unit so it picks up regenerated files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			client, err := inetd.New(ctx, log.GetLogger())
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Restart(ctx, cfg.InetdUnit); err != nil {
				return err
			}

			fmt.Printf("Restarted %s\n", cfg.InetdUnit)
			return nil
		},
		SilenceUsage: true,
	}
}
