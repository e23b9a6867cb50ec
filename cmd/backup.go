package cmd

import (
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage server backups",
	Long:  "Run backups and inspect the backup history",
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
