package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the game server",
	Long:  "Stop the game server container, giving it time to save the world",
	Run:   runStop,
}

func runStop(cmd *cobra.Command, args []string) {
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

	ctx := context.Background()

	running, err := controller.Running(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to inspect container: %v", err)))
		os.Exit(1)
	}

	if !running {
		fmt.Println(dimStyle.Render(fmt.Sprintf("server '%s' is already stopped", cfg.Docker.ContainerName)))
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> stopping server: %s", cfg.Docker.ContainerName)))
	fmt.Println()

	fmt.Println(progressStyle.Render(fmt.Sprintf("  --> stopping container (grace period %ds)...", docker.StopGraceSeconds)))

	if err := controller.Stop(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to stop server: %v", err)))
		os.Exit(1)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("  [done] %s stopped successfully", cfg.Docker.ContainerName)))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
