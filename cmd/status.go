package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/ixops/inetd-gen/internal/db"
	"github.com/ixops/inetd-gen/internal/generator"
	"github.com/ixops/inetd-gen/internal/inetd"
	"github.com/ixops/inetd-gen/internal/log"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// StatusCommand represents the status command.
type StatusCommand struct{}

// GetCobraCommand returns the cobra command for showing TFTP service status.
func (c *StatusCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the effective TFTP settings and inetd unit state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Run(cmd.Context())
		},
		SilenceUsage: true,
	}
}

// Run queries the settings store and renders the effective configuration.
func (c *StatusCommand) Run(ctx context.Context) error {
	store, err := db.Connect()
	if err != nil {
		return fmt.Errorf("connecting to settings store: %w", err)
	}
	defer func() { _ = store.Close() }()

	row, err := db.NewTftpRepository(store).FindLatest()
	if err != nil {
		return fmt.Errorf("querying tftp settings: %w", err)
	}

	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()
	tbl := table.New("Setting", "Value")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

	if row == nil {
		tbl.AddRow("Enabled", "no")
	} else {
		tbl.AddRow("Enabled", "yes")
		tbl.AddRow("Service name", generator.ServiceNameFor(row.Port))
		tbl.AddRow("Port", strconv.Itoa(row.Port))
		tbl.AddRow("Directory", row.Directory)
		tbl.AddRow("Uploads", yesNo(row.Newfiles))
		tbl.AddRow("Username", row.Username)
		tbl.AddRow("Umask", "0"+row.Umask)
		tbl.AddRow("Options", row.Options)
	}

	tbl.AddRow("Inetd unit", fmt.Sprintf("%s (%s)", cfg.InetdUnit, c.unitState(ctx)))

	tbl.Print()
	return nil
}

// unitState asks systemd for the inetd unit's active state; status output
// degrades to "unknown" when the bus is unavailable.
func (c *StatusCommand) unitState(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := inetd.New(ctx, log.GetLogger())
	if err != nil {
		log.GetLogger().Debug("Unable to connect to systemd", "error", err)
		return "unknown"
	}
	defer client.Close()

	state, err := client.ActiveState(ctx, cfg.InetdUnit)
	if err != nil {
		log.GetLogger().Debug("Unable to query unit state", "error", err)
		return "unknown"
	}
	return state
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
