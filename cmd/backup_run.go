package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/TanZiPeng/mcserver/internal/utils"
)

var backupPaths []string

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backup now",
	Long: `Upload the server data directory to the configured rclone remote.

The whole data directory is synced unless --path narrows the backup
to specific files or directories relative to it.`,
	Example: `  mcserver backup run
  mcserver backup run --path world --path server.properties`,
	Args: cobra.NoArgs,
	Run:  runBackupRun,
}

func runBackupRun(cmd *cobra.Command, args []string) {
	log, err := newLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to initialize logger: %v", err)))
		os.Exit(1)
	}
	defer log.Sync()

	manager, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to load config: %v", err)))
		os.Exit(1)
	}
	cfg := manager.Get()

	dataPath, err := utils.ValidateDataPath(cfg.Backup.DataPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] data path: %v", err)))
		os.Exit(1)
	}

	_, runner := newBackupComponents(manager, log)

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> backing up %s", dataPath)))
	fmt.Println()

	if len(backupPaths) > 0 {
		fmt.Println(labelStyle.Render("  selected paths:"))
		for _, p := range backupPaths {
			fmt.Printf("    %s %s\n", dimStyle.Render("•"), valueStyle.Render(p))
		}
		fmt.Println()
	}

	fmt.Println(progressStyle.Render(fmt.Sprintf("  --> uploading to %s:%s...", cfg.Backup.RcloneRemote, cfg.Backup.BucketPath)))

	rec, err := runner.Execute(context.Background(), backupPaths)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to start backup: %v", err)))
		os.Exit(1)
	}
	fmt.Println()

	fmt.Println(labelStyle.Render("  details:"))
	fmt.Printf("    %s %s\n", dimStyle.Render("id:"), valueStyle.Render(rec.ID))
	fmt.Printf("    %s %s\n", dimStyle.Render("destination:"), valueStyle.Render(rec.RemotePath))
	fmt.Printf("    %s %s\n", dimStyle.Render("duration:"), valueStyle.Render(fmt.Sprintf("%.2fs", rec.Duration)))
	fmt.Printf("    %s %s\n", dimStyle.Render("files:"), valueStyle.Render(fmt.Sprintf("%d", rec.FilesTransferred)))
	fmt.Printf("    %s %s\n", dimStyle.Render("uploaded:"), valueStyle.Render(utils.FormatBytes(rec.BytesTransferred)))
	fmt.Println()

	if rec.Status != backup.StatusSuccess {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] backup finished with errors: %s", utils.TruncateString(rec.Error, 200))))
		fmt.Println(dimStyle.Render(fmt.Sprintf("  inspect with: mcserver backup show %s", rec.ID)))
		os.Exit(1)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("  [done] backup %s completed", rec.ID)))
}

func init() {
	backupRunCmd.Flags().StringSliceVar(&backupPaths, "path", nil, "back up only this path, relative to the data directory (repeatable)")
	backupCmd.AddCommand(backupRunCmd)
}
