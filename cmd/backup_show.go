package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/TanZiPeng/mcserver/internal/utils"
)

var backupShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show backup details",
	Long:  "Show the stored record of a single backup job",
	Args:  cobra.ExactArgs(1),
	Run:   runBackupShow,
}

func runBackupShow(cmd *cobra.Command, args []string) {
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

	history := backup.NewHistory(cfg.Backup.HistoryFile, log)
	rec, err := history.Get(args[0])
	if err != nil {
		fmt.Println(dimStyle.Render(fmt.Sprintf("backup '%s' does not exist", args[0])))
		fmt.Println()
		fmt.Println(dimStyle.Render("see recorded backups with: mcserver backup list"))
		return
	}

	statusColor := "10"
	if rec.Status == backup.StatusError {
		statusColor = "9"
	} else if rec.Status == backup.StatusRunning {
		statusColor = "14"
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> backup: %s", rec.ID)))
	fmt.Println()

	fmt.Println(labelStyle.Render("  job:"))
	fmt.Printf("    %s %s\n", dimStyle.Render("status:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor)).Render(string(rec.Status)))
	fmt.Printf("    %s %s\n", dimStyle.Render("source:"), valueStyle.Render(rec.LocalPath))
	fmt.Printf("    %s %s\n", dimStyle.Render("destination:"), valueStyle.Render(rec.RemotePath))
	if len(rec.SelectedPaths) > 0 {
		fmt.Printf("    %s %s\n", dimStyle.Render("paths:"), valueStyle.Render(strings.Join(rec.SelectedPaths, ", ")))
	}
	fmt.Println()

	fmt.Println(labelStyle.Render("  timing:"))
	fmt.Printf("    %s %s\n", dimStyle.Render("started:"), valueStyle.Render(rec.StartTime.Format("2006-01-02 15:04:05")))
	if rec.EndTime != nil {
		fmt.Printf("    %s %s\n", dimStyle.Render("finished:"), valueStyle.Render(rec.EndTime.Format("2006-01-02 15:04:05")))
		fmt.Printf("    %s %s\n", dimStyle.Render("duration:"), valueStyle.Render(fmt.Sprintf("%.2fs", rec.Duration)))
	}
	fmt.Println()

	fmt.Println(labelStyle.Render("  transfer:"))
	fmt.Printf("    %s %s\n", dimStyle.Render("files:"), valueStyle.Render(fmt.Sprintf("%d", rec.FilesTransferred)))
	fmt.Printf("    %s %s\n", dimStyle.Render("uploaded:"), valueStyle.Render(utils.FormatBytes(rec.BytesTransferred)))
	fmt.Println()

	if rec.Error != "" {
		fmt.Println(labelStyle.Render("  error:"))
		fmt.Printf("    %s\n", errorStyle.Render(utils.TruncateString(rec.Error, 500)))
		fmt.Println()
	}

	if rec.Output != "" {
		fmt.Println(labelStyle.Render("  output (tail):"))
		for _, line := range lastLines(rec.Output, 10) {
			fmt.Printf("    %s\n", dimStyle.Render(line))
		}
		fmt.Println()
	}
}

func lastLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func init() {
	backupCmd.AddCommand(backupShowCmd)
}
