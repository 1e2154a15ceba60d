package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokvault-go/internal/cli/output"
	serverconfig "github.com/yndnr/tokvault-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Server configuration file",
		EnvVars: []string{"TOKVAULT_CLI_SERVER_CONFIG"},
	}

	return &cli.Command{
		Name:  "config",
		Usage: "Server configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective server configuration with secrets masked",
				Flags:  []cli.Flag{configFlag},
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate a server configuration file",
				Flags:  []cli.Flag{configFlag},
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := serverconfig.LoadUnverified(c.String("config"))
	if err != nil {
		return err
	}

	// The configuration is nested; table output falls back to YAML.
	format := outputFormat(c)
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format).Format(c.App.Writer, serverconfig.Sanitize(cfg))
}

func configValidate(c *cli.Context) error {
	path := c.String("config")
	cfg, err := serverconfig.Load(path)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if path == "" {
		path = "(defaults and environment)"
	}
	fmt.Fprintf(c.App.Writer, "✓ Configuration is valid: %s\n", path)
	fmt.Fprintf(c.App.Writer, "  Backend: %s\n", cfg.Storage.Backend)
	fmt.Fprintf(c.App.Writer, "  Listen:  %s\n", cfg.Server.HTTP.Addr)
	return nil
}
