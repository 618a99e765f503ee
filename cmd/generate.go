package cmd

import (
	"github.com/ixops/inetd-gen/internal/config"
	"github.com/ixops/inetd-gen/internal/generator"
	"github.com/ixops/inetd-gen/internal/log"

	"github.com/spf13/cobra"
)

// GenerateCommand represents the generate command, the lifecycle "start"
// action.
type GenerateCommand struct{}

// GetCobraCommand returns the cobra command for regenerating the output files.
func (c *GenerateCommand) GetCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Regenerate the services and inetd configuration files",
		Long: `Regenerate /etc/services and /etc/inetd.conf from their base templates and
the most recent TFTP settings row. The lifecycle framework runs this before
the network-service dispatcher starts and treats the exit status as the sole
success signal. The running dispatcher is never signalled; reloading is the
framework's responsibility.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			svc := generator.NewService(config.DefaultProvider(), log.GetLogger())
			return svc.Generate()
		},
		SilenceUsage: true,
	}
}
