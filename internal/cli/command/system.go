package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokvault-go/internal/cli/output"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server status (entries, backend, version, uptime)",
		Action: statusAction,
	}
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ready",
				Usage: "Check readiness (vault loaded) instead of liveness",
			},
		},
		Action: healthAction,
	}
}

func statusAction(c *cli.Context) error {
	st, err := EnsureConnected(c).Status(c.Context)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return render(c, st)
}

func healthAction(c *cli.Context) error {
	client := EnsureConnected(c)

	check, probe := client.Health, "healthy"
	if c.Bool("ready") {
		check, probe = client.Ready, "ready"
	}

	result, err := check(c.Context)
	if err != nil {
		return fmt.Errorf("server is not %s: %w", probe, err)
	}

	if outputFormat(c) != output.FormatTable {
		return render(c, result)
	}
	fmt.Fprintf(c.App.Writer, "✓ Server is %s\n", result.Status)
	fmt.Fprintf(c.App.Writer, "  Target: %s\n", client.BaseURL())
	return nil
}
