package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the game server",
	Long:  "Start the game server container if it is not already running",
	Run:   runStart,
}

func runStart(cmd *cobra.Command, args []string) {
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

	if running {
		fmt.Println(dimStyle.Render(fmt.Sprintf("server '%s' is already running", cfg.Docker.ContainerName)))
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> starting server: %s", cfg.Docker.ContainerName)))
	fmt.Println()

	fmt.Println(progressStyle.Render("  --> starting container..."))

	if err := controller.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to start server: %v", err)))
		os.Exit(1)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("  [done] %s started successfully", cfg.Docker.ContainerName)))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(startCmd)
}
