package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokvault-go/internal/cli/config"
	"github.com/yndnr/tokvault-go/internal/cli/connection"
	"github.com/yndnr/tokvault-go/internal/cli/output"
	"github.com/yndnr/tokvault-go/internal/infra/buildinfo"
)

const metaCLIConfig = "cliConfig"

// maxStdinBytes caps text read from stdin.
const maxStdinBytes = 8 << 20

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tokvault-cli",
		Usage:   "TokVault command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenizeCommand(),
			DetokenizeCommand(),
			StatusCommand(),
			HealthCommand(),
			BackupCommand(),
			LocalCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("cli-config"))
			if err != nil {
				return err
			}
			c.App.Metadata[metaCLIConfig] = cfg

			_, err = output.ParseFormat(ParseGlobalFlags(c).Output)
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "TokVault server URL",
			EnvVars: []string{"TOKVAULT_CLI_SERVER"},
			Value:   config.Default().Server,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"k"},
			Usage:   "API key sent as a bearer token",
			EnvVars: []string{"TOKVAULT_CLI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			EnvVars: []string{"TOKVAULT_CLI_OUTPUT"},
			Value:   config.Default().Output,
		},
		&cli.StringFlag{
			Name:    "cli-config",
			Usage:   "CLI config file (default ~/.tokvault/cli.yaml)",
			EnvVars: []string{"TOKVAULT_CLI_CONFIG"},
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server string
	APIKey string
	Output string
}

// ParseGlobalFlags resolves global flags. Explicit flags and environment
// variables win over the CLI config file, which wins over flag defaults.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	cfg, _ := c.App.Metadata[metaCLIConfig].(*config.CLIConfig)
	if cfg == nil {
		cfg = config.Default()
	}

	pick := func(name, fromFile string) string {
		if c.IsSet(name) || fromFile == "" {
			return c.String(name)
		}
		return fromFile
	}

	return &GlobalFlags{
		Server: pick("server", cfg.Server),
		APIKey: pick("api-key", cfg.APIKey),
		Output: pick("output", cfg.Output),
	}
}

// EnsureConnected returns an HTTP client for the configured server.
func EnsureConnected(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	return connection.NewHTTPClient(flags.Server, flags.APIKey)
}

// outputFormat returns the validated --output format.
func outputFormat(c *cli.Context) output.Format {
	f, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return output.FormatTable
	}
	return f
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(outputFormat(c)).Format(c.App.Writer, data)
}

// inputText joins the arguments, or reads stdin when there are none.
func inputText(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(c.App.Reader, maxStdinBytes+1))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(data) > maxStdinBytes {
		return "", fmt.Errorf("stdin input exceeds %d bytes", maxStdinBytes)
	}
	return string(data), nil
}
