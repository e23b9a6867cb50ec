package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/TanZiPeng/mcserver/internal/utils"
)

var backupListLimit int

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent backups",
	Long:  "List recent backup jobs, newest first",
	Args:  cobra.NoArgs,
	Run:   runBackupList,
}

func runBackupList(cmd *cobra.Command, args []string) {
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
	records := history.List(backupListLimit)

	if len(records) == 0 {
		fmt.Println(dimStyle.Render("no backups recorded yet"))
		fmt.Println()
		fmt.Println(dimStyle.Render("run one with: mcserver backup run"))
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> backups (%d)", len(records))))
	fmt.Println()

	rows := [][]string{}
	var totalBytes int64

	for _, rec := range records {
		totalBytes += rec.BytesTransferred

		statusColor := "10"
		if rec.Status == backup.StatusError {
			statusColor = "9"
		} else if rec.Status == backup.StatusRunning {
			statusColor = "14"
		}

		statusStyled := lipgloss.NewStyle().
			Foreground(lipgloss.Color(statusColor)).
			Render(string(rec.Status))

		scope := "full"
		if len(rec.SelectedPaths) > 0 {
			scope = fmt.Sprintf("%d paths", len(rec.SelectedPaths))
		}

		rows = append(rows, []string{
			rec.ID,
			statusStyled,
			scope,
			rec.StartTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1fs", rec.Duration),
			utils.FormatBytes(rec.BytesTransferred),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == 0 {
				return lipgloss.NewStyle().
					Foreground(lipgloss.Color("86")).
					Bold(true).
					Align(lipgloss.Center)
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		}).
		Headers("id", "status", "scope", "started", "duration", "uploaded").
		Rows(rows...)

	fmt.Println(t)
	fmt.Println()

	fmt.Println(dimStyle.Render(fmt.Sprintf("  total uploaded: %s", utils.FormatBytes(totalBytes))))
	fmt.Println()

	fmt.Println(dimStyle.Render("  commands:"))
	fmt.Printf("    %s\n", dimStyle.Render("mcserver backup show <id>      # inspect a backup"))
	fmt.Printf("    %s\n", dimStyle.Render("mcserver backup run            # start a new backup"))
	fmt.Println()
}

func init() {
	backupListCmd.Flags().IntVar(&backupListLimit, "limit", backup.DefaultHistoryLimit, "maximum number of backups to show")
	backupCmd.AddCommand(backupListCmd)
}
