package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akagifreeez/cookie-relay/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a JSONL snapshot of every stored entry",
	Long: `Write a JSONL snapshot of every stored entry to --file, or to the
configured S3 bucket (BACKUP_S3_BUCKET) when --file is not given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")

		dest, err := backupDestination(cmd.Context(), path)
		if err != nil {
			return err
		}
		if backup.NewScheduler(store, []backup.Destination{dest}, 0).RunOnce(cmd.Context()) == 0 {
			return errors.New("backup failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Backup written")
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Load a JSONL snapshot, replacing entries with the same keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := backup.ImportJSONL(cmd.Context(), store, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d entries\n", n)
		return nil
	},
}

func backupDestination(ctx context.Context, path string) (backup.Destination, error) {
	if path != "" {
		return backup.NewFileDestination(path), nil
	}
	if cfg.BackupS3Bucket == "" {
		return nil, errors.New("either --file or BACKUP_S3_BUCKET is required")
	}
	return backup.NewS3Destination(ctx, cfg.BackupS3Bucket, cfg.BackupS3Key, cfg.BackupS3Region, cfg.BackupS3Endpoint)
}

func init() {
	backupCmd.Flags().String("file", "", "write the snapshot to this local file")
}
