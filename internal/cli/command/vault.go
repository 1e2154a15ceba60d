package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokvault-go/internal/cli/output"
	"github.com/yndnr/tokvault-go/internal/server/httpserver/handler"
)

// TokenizeCommand returns the tokenize command.
func TokenizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "tokenize",
		Aliases:   []string{"tok"},
		Usage:     "Replace every word of TEXT with its token",
		ArgsUsage: "[TEXT...] (reads stdin when omitted)",
		Action:    tokenizeAction,
	}
}

// DetokenizeCommand returns the detokenize command.
func DetokenizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "detokenize",
		Aliases:   []string{"detok"},
		Usage:     "Replace every known token in TEXT with its word",
		ArgsUsage: "[TEXT...] (reads stdin when omitted)",
		Action:    detokenizeAction,
	}
}

func tokenizeAction(c *cli.Context) error {
	text, err := inputText(c)
	if err != nil {
		return err
	}

	out, err := EnsureConnected(c).Tokenize(c.Context, text)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}
	return printVaultResult(c, out, handler.TokenizeResponse{Tokenized: out})
}

func detokenizeAction(c *cli.Context) error {
	text, err := inputText(c)
	if err != nil {
		return err
	}

	out, err := EnsureConnected(c).Detokenize(c.Context, text)
	if err != nil {
		return fmt.Errorf("detokenize: %w", err)
	}
	return printVaultResult(c, out, handler.DetokenizeResponse{Detokenized: out})
}

// printVaultResult prints the bare text for table output so results can
// be piped, and the structured form otherwise.
func printVaultResult(c *cli.Context, text string, structured any) error {
	if outputFormat(c) == output.FormatTable {
		_, err := fmt.Fprintln(c.App.Writer, text)
		return err
	}
	return render(c, structured)
}
