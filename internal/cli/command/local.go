package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokvault-go/internal/cli/output"
	"github.com/yndnr/tokvault-go/internal/cli/repl"
	"github.com/yndnr/tokvault-go/internal/core/service"
	"github.com/yndnr/tokvault-go/internal/storage"
	"github.com/yndnr/tokvault-go/internal/storage/codec"
	"github.com/yndnr/tokvault-go/internal/telemetry/logger"
	"github.com/yndnr/tokvault-go/pkg/crypto/adaptive"
)

// DefaultDemoText is tokenized by "local demo" when no text is given.
const DefaultDemoText = "My age is 43."

// LocalCommand returns the local command group. Local commands open a
// Badger vault directory in-process; the directory must not be in use by a
// running server.
func LocalCommand() *cli.Command {
	return &cli.Command{
		Name:  "local",
		Usage: "Operate on a local vault directory without a server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data-dir",
				Aliases:  []string{"d"},
				Usage:    "Badger vault directory",
				EnvVars:  []string{"TOKVAULT_CLI_DATA_DIR"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "encryption-key",
				Usage:   "Hex-encoded vault encryption key (16, 24 or 32 bytes)",
				EnvVars: []string{"TOKVAULT_CLI_ENCRYPTION_KEY"},
			},
			&cli.StringFlag{
				Name:  "cipher",
				Usage: "Vault cipher: auto, aes-gcm, chacha20-poly1305",
				Value: string(adaptive.CipherAuto),
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Detokenize policy for unknown tokens: drop, strict",
				Value: string(service.PolicyDrop),
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:      "tokenize",
				Usage:     "Tokenize TEXT against the local vault",
				ArgsUsage: "[TEXT...]",
				Action:    localVaultAction(false),
			},
			{
				Name:      "detokenize",
				Usage:     "Detokenize TEXT against the local vault",
				ArgsUsage: "[TEXT...]",
				Action:    localVaultAction(true),
			},
			{
				Name:      "demo",
				Usage:     "Tokenize TEXT, then detokenize the result",
				ArgsUsage: "[TEXT...] (default \"" + DefaultDemoText + "\")",
				Action:    localDemoAction,
			},
			{
				Name:   "shell",
				Usage:  "Interactive tokenize/detokenize shell",
				Action: localShellAction,
			},
			localSnapshotCommand(),
		},
	}
}

// localVault is an in-process tokenizer over a Badger directory.
type localVault struct {
	tokenizer *service.Tokenizer
	backend   storage.Backend
	codec     *codec.Codec
}

func (l *localVault) Close() error {
	return l.backend.Close()
}

// openLocal opens the vault described by the local command flags.
func openLocal(c *cli.Context) (*localVault, error) {
	policy, err := service.ParseDetokenizePolicy(c.String("policy"))
	if err != nil {
		return nil, err
	}

	var opts []codec.Option
	if key := c.String("encryption-key"); key != "" {
		cipher, err := adaptive.FromHexKey(key, c.String("cipher"))
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		opts = append(opts, codec.WithCipher(cipher))
	}

	log := logger.NewSlog(logger.Config{
		Level:  "warn",
		Format: "text",
		Output: c.App.ErrWriter,
	})

	engine, err := storage.NewBadgerEngine(storage.DefaultKVConfig(c.String("data-dir")), log)
	if err != nil {
		return nil, err
	}
	blobCodec := codec.New(opts...)
	backend := storage.NewBlobBackend("badger", engine, blobCodec, storage.WithLogger(log))

	store, err := service.LoadVaultStore(c.Context, backend, service.DefaultVaultConfig())
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &localVault{
		tokenizer: service.NewTokenizer(service.NewGuard(store), policy),
		backend:   backend,
		codec:     blobCodec,
	}, nil
}

func withLocal(c *cli.Context, fn func(*localVault) error) (err error) {
	lv, err := openLocal(c)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := lv.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close vault: %w", cerr)
		}
	}()
	return fn(lv)
}

func localVaultAction(detokenize bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		text, err := inputText(c)
		if err != nil {
			return err
		}
		return withLocal(c, func(lv *localVault) error {
			if detokenize {
				out, err := lv.tokenizer.Detokenize(c.Context, text)
				if err != nil {
					return err
				}
				return printVaultResult(c, out, struct {
					Detokenized string `json:"detokenized" yaml:"detokenized"`
				}{out})
			}
			out, err := lv.tokenizer.Tokenize(c.Context, text)
			if err != nil {
				return err
			}
			return printVaultResult(c, out, struct {
				Tokenized string `json:"tokenized" yaml:"tokenized"`
			}{out})
		})
	}
}

type demoResult struct {
	Original    string `json:"original" yaml:"original"`
	Tokenized   string `json:"tokenized" yaml:"tokenized"`
	Detokenized string `json:"detokenized" yaml:"detokenized"`
}

func localDemoAction(c *cli.Context) error {
	text := DefaultDemoText
	if c.NArg() > 0 {
		var err error
		if text, err = inputText(c); err != nil {
			return err
		}
	}

	return withLocal(c, func(lv *localVault) error {
		tokenized, err := lv.tokenizer.Tokenize(c.Context, text)
		if err != nil {
			return err
		}
		detokenized, err := lv.tokenizer.Detokenize(c.Context, tokenized)
		if err != nil {
			return err
		}

		res := demoResult{Original: text, Tokenized: tokenized, Detokenized: detokenized}
		if outputFormat(c) != output.FormatTable {
			return render(c, res)
		}
		fmt.Fprintf(c.App.Writer, "Original:    %s\n", res.Original)
		fmt.Fprintf(c.App.Writer, "Tokenized:   %s\n", res.Tokenized)
		fmt.Fprintf(c.App.Writer, "Detokenized: %s\n", res.Detokenized)
		return nil
	})
}

func localShellAction(c *cli.Context) error {
	return withLocal(c, func(lv *localVault) error {
		exec := func(ctx context.Context, cmd, args string) (string, error) {
			switch cmd {
			case "tokenize", "tok":
				return lv.tokenizer.Tokenize(ctx, args)
			case "detokenize", "detok":
				return lv.tokenizer.Detokenize(ctx, args)
			case "stats":
				st := lv.tokenizer.Stats()
				return "entries: " + strconv.Itoa(st.Entries) + "  backend: " + st.Backend, nil
			default:
				return "", repl.ErrUnknownCommand
			}
		}

		fmt.Fprintf(c.App.Writer, "tokvault local shell (%s, policy %s). Type 'help' or 'exit'.\n",
			c.String("data-dir"), lv.tokenizer.Policy())

		err := repl.New(c.App.Reader, c.App.Writer, exec, "tokenize", "detokenize", "stats").Run(c.Context)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
