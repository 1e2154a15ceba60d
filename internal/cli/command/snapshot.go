package command

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tokvault-go/internal/cli/output"
	"github.com/yndnr/tokvault-go/internal/core/domain"
	"github.com/yndnr/tokvault-go/internal/storage/snapshot"
)

// localSnapshotCommand manages snapshots of the local vault. Snapshots
// written by the server with the same encryption key can be restored too.
func localSnapshotCommand() *cli.Command {
	dirFlag := &cli.StringFlag{
		Name:     "dir",
		Usage:    "Snapshot directory",
		EnvVars:  []string{"TOKVAULT_CLI_SNAPSHOT_DIR"},
		Required: true,
	}

	return &cli.Command{
		Name:  "snapshot",
		Usage: "Create, list and restore vault snapshots",
		Subcommands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Write a snapshot of the local vault",
				Flags:  []cli.Flag{dirFlag},
				Action: snapshotCreateAction,
			},
			{
				Name:   "list",
				Usage:  "List snapshots, oldest first",
				Flags:  []cli.Flag{dirFlag},
				Action: snapshotListAction,
			},
			{
				Name:  "restore",
				Usage: "Replace the local vault with a snapshot",
				Flags: []cli.Flag{
					dirFlag,
					&cli.StringFlag{
						Name:  "file",
						Usage: "Snapshot file to restore (default: newest valid snapshot in --dir)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite a non-empty local vault",
					},
				},
				Action: snapshotRestoreAction,
			},
		},
	}
}

func snapshotManager(c *cli.Context, lv *localVault) (*snapshot.Manager, error) {
	return snapshot.NewManager(snapshot.Config{
		Dir:            c.String("dir"),
		RetentionCount: -1,
		RetentionDays:  -1,
		Codec:          lv.codec,
	})
}

func snapshotCreateAction(c *cli.Context) error {
	return withLocal(c, func(lv *localVault) error {
		mgr, err := snapshotManager(c, lv)
		if err != nil {
			return err
		}
		v, backend := lv.tokenizer.Snapshot()
		info, err := mgr.Create(v, backend)
		if err != nil {
			return err
		}

		if outputFormat(c) != output.FormatTable {
			return render(c, info)
		}
		fmt.Fprintf(c.App.Writer, "Snapshot %s written (%d entries, %d bytes)\n", info.ID, info.Entries, info.Size)
		fmt.Fprintf(c.App.Writer, "  Path: %s\n", info.Path)
		return nil
	})
}

func snapshotListAction(c *cli.Context) error {
	// Listing reads file names only and does not need the vault.
	mgr, err := snapshot.NewManager(snapshot.Config{Dir: c.String("dir")})
	if err != nil {
		return err
	}
	infos, err := mgr.List()
	if err != nil {
		return err
	}

	if outputFormat(c) != output.FormatTable {
		if infos == nil {
			infos = []*snapshot.Info{}
		}
		return render(c, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(c.App.Writer, "No snapshots found.")
		return nil
	}
	table := &output.Table{Headers: []string{"ID", "CREATED", "SIZE"}}
	for _, info := range infos {
		table.AddRow(info.ID,
			time.UnixMilli(info.CreatedAt).UTC().Format(time.RFC3339),
			strconv.FormatInt(info.Size, 10))
	}
	return table.Render(c.App.Writer)
}

func snapshotRestoreAction(c *cli.Context) error {
	return withLocal(c, func(lv *localVault) error {
		mgr, err := snapshotManager(c, lv)
		if err != nil {
			return err
		}

		var (
			v    *domain.Vault
			info *snapshot.Info
		)
		if file := c.String("file"); file != "" {
			v, info, err = mgr.LoadFile(file)
		} else {
			v, info, err = mgr.Load()
		}
		if err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshots) {
				return fmt.Errorf("no valid snapshot in %s", mgr.Dir())
			}
			return err
		}

		if n := lv.tokenizer.Stats().Entries; n > 0 && !c.Bool("force") {
			return fmt.Errorf("local vault holds %d entries; use --force to overwrite", n)
		}
		if err := lv.tokenizer.Restore(c.Context, v); err != nil {
			return fmt.Errorf("restore vault: %w", err)
		}

		fmt.Fprintf(c.App.Writer, "Restored %d entries from %s\n", info.Entries, info.ID)
		return nil
	})
}
