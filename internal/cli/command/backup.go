package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// BackupCommand returns the backup command.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Download a backup of the vault store (badger backend)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"f"},
				Usage:    "Destination file",
				Required: true,
			},
		},
		Action: backupAction,
	}
}

func backupAction(c *cli.Context) error {
	dest := c.String("out")

	// Write next to the destination and rename, so a failed download never
	// leaves a truncated file under the final name.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tokvault-backup-*")
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := EnsureConnected(c).Backup(c.Context, tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename backup file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Backup written to %s (%d bytes)\n", dest, n)
	return nil
}
