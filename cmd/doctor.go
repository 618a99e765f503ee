package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/ixops/inetd-gen/internal/db"
	"github.com/ixops/inetd-gen/internal/execx"
	"github.com/pin/tftp"
	"github.com/spf13/cobra"
)

// CheckResult represents the result of a diagnostic check.
type CheckResult struct {
	Name       string
	Passed     bool
	Message    string
	Suggestion string
}

// DoctorCommand represents the doctor command for the inetd-gen CLI.
type DoctorCommand struct{}

// GetCobraCommand returns the cobra command for doctor operations.
func (c *DoctorCommand) GetCobraCommand() *cobra.Command {
	var probe bool

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system health and configuration",
		Long: `Check system health and configuration for inetd-gen.

The doctor command verifies that the base templates are readable, the tftpd
binary is installed, the settings store is reachable, and no stale failure
marker is left over from a previous run. With --probe it additionally sends a
TFTP read request to the configured port to confirm a live listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Run(cmd.Context(), probe)
		},
		SilenceUsage: true,
	}

	doctorCmd.Flags().BoolVar(&probe, "probe", false, "Send a live TFTP read request to the configured port")

	return doctorCmd
}

// Run executes all diagnostic checks and reports the results.
func (c *DoctorCommand) Run(ctx context.Context, probe bool) error {
	runner := execx.NewRealRunner()

	results := []CheckResult{
		checkReadable("base services template", cfg.BaseServicesFile),
		checkReadable("base inetd template", cfg.BaseInetdFile),
		c.checkTftpdBinary(runner),
		c.checkSystemctl(ctx, runner),
		c.checkStore(),
		c.checkFailureMarker(),
	}

	if probe {
		results = append(results, c.probeTftp())
	}

	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	failed := 0
	for _, r := range results {
		marker := pass("ok")
		if !r.Passed {
			marker = fail("FAIL")
			failed++
		}
		fmt.Printf("[%s] %s: %s\n", marker, r.Name, r.Message)
		if !r.Passed && r.Suggestion != "" {
			fmt.Printf("       %s\n", r.Suggestion)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}

	fmt.Println("\nAll checks passed.")
	return nil
}

func checkReadable(name, path string) CheckResult {
	f, err := os.Open(path)
	if err != nil {
		return CheckResult{
			Name:       name,
			Passed:     false,
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Restore %s; generation skips this file while it is missing.", path),
		}
	}
	_ = f.Close()

	return CheckResult{Name: name, Passed: true, Message: path}
}

func (c *DoctorCommand) checkTftpdBinary(runner execx.Runner) CheckResult {
	path := cfg.TftpdPath
	if !strings.HasPrefix(path, "/") {
		resolved, err := runner.LookPath(path)
		if err != nil {
			return CheckResult{
				Name:       "tftpd binary",
				Passed:     false,
				Message:    err.Error(),
				Suggestion: "Install the tftpd daemon or point tftpdPath at it.",
			}
		}
		path = resolved
	}

	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:       "tftpd binary",
			Passed:     false,
			Message:    err.Error(),
			Suggestion: "Install the tftpd daemon or point tftpdPath at it.",
		}
	}

	return CheckResult{Name: "tftpd binary", Passed: true, Message: path}
}

func (c *DoctorCommand) checkSystemctl(ctx context.Context, runner execx.Runner) CheckResult {
	out, err := runner.CombinedOutput(ctx, "systemctl", "--version")
	if err != nil {
		return CheckResult{
			Name:       "systemd",
			Passed:     false,
			Message:    err.Error(),
			Suggestion: "The status and restart commands need systemd; generate works without it.",
		}
	}

	version := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	return CheckResult{Name: "systemd", Passed: true, Message: version}
}

func (c *DoctorCommand) checkStore() CheckResult {
	store, err := db.Connect()
	if err != nil {
		return CheckResult{
			Name:       "settings store",
			Passed:     false,
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Verify %s exists and is readable.", cfg.DBPath),
		}
	}
	defer func() { _ = store.Close() }()

	return CheckResult{Name: "settings store", Passed: true, Message: cfg.DBPath}
}

func (c *DoctorCommand) checkFailureMarker() CheckResult {
	content, err := os.ReadFile(cfg.FailureMarker)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Name: "failure marker", Passed: true, Message: "none"}
		}
		return CheckResult{Name: "failure marker", Passed: false, Message: err.Error()}
	}

	return CheckResult{
		Name:       "failure marker",
		Passed:     false,
		Message:    strings.TrimSpace(string(content)),
		Suggestion: "A previous run could not reach the settings store; rerun generate.",
	}
}

// probeTftp sends a read request to the configured port. Any TFTP-level reply,
// including an error packet, proves a live listener; only silence fails.
func (c *DoctorCommand) probeTftp() CheckResult {
	port := 69
	if store, err := db.Connect(); err == nil {
		if row, err := db.NewTftpRepository(store).FindLatest(); err == nil && row != nil {
			port = row.Port
		}
		_ = store.Close()
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	client, err := tftp.NewClient(addr)
	if err != nil {
		return CheckResult{Name: "tftp probe", Passed: false, Message: err.Error()}
	}
	client.SetTimeout(3 * time.Second)
	client.SetRetries(1)

	wt, err := client.Receive(".inetd-gen-probe", "octet")
	if err != nil {
		if strings.Contains(err.Error(), "timeout") {
			return CheckResult{
				Name:       "tftp probe",
				Passed:     false,
				Message:    fmt.Sprintf("no response from %s", addr),
				Suggestion: "Confirm inetd is running and the generated files are installed.",
			}
		}
		// Error packet from the server, e.g. file not found.
		return CheckResult{Name: "tftp probe", Passed: true, Message: fmt.Sprintf("%s answered: %v", addr, err)}
	}

	_, _ = wt.WriteTo(io.Discard)
	return CheckResult{Name: "tftp probe", Passed: true, Message: fmt.Sprintf("%s answered", addr)}
}
