package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List online players",
	Long:  "Ask the game server who is online right now",
	Run:   runPlayers,
}

func runPlayers(cmd *cobra.Command, args []string) {
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
		fmt.Println(dimStyle.Render(fmt.Sprintf("server '%s' is not running", cfg.Docker.ContainerName)))
		return
	}

	console := newConsole(controller, cfg, log)

	list, err := console.Players(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to query players: %v", err)))
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> players online: %d/%d", list.Count, list.Max)))
	fmt.Println()

	if len(list.Players) == 0 {
		fmt.Println(dimStyle.Render("  nobody is online right now"))
		fmt.Println()
		return
	}

	for _, name := range list.Players {
		fmt.Printf("    %s %s\n", dimStyle.Render("•"), valueStyle.Render(name))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(playersCmd)
}
