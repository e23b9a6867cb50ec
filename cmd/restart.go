package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the game server",
	Long:  "Restart the game server container with a save-friendly grace period",
	Run:   runRestart,
}

func runRestart(cmd *cobra.Command, args []string) {
	manager, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to load config: %v", err)))
		os.Exit(1)
	}

	cfg := manager.Get()

	client, controller, err := newController(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to initialize runtime client: %v", err)))
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> restarting server: %s", cfg.Docker.ContainerName)))
	fmt.Println()

	fmt.Println(progressStyle.Render(fmt.Sprintf("  --> restarting container (grace period %ds)...", docker.RestartGraceSeconds)))

	if err := controller.Restart(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to restart server: %v", err)))
		os.Exit(1)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("  [done] %s restarted successfully", cfg.Docker.ContainerName)))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(restartCmd)
}
