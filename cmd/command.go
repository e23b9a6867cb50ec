package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var commandCmd = &cobra.Command{
	Use:   "command [command...]",
	Short: "Send a console command to the server",
	Long: `Forward an admin command to the game server console.

Delivery tries rcon-cli and mc-send-to-console inside the container first,
then falls back to a direct rcon connection.

Examples:
  mcserver command list                  # who is online
  mcserver command say "restarting soon"
  mcserver command whitelist add alice`,
	Args: cobra.MinimumNArgs(1),
	Run:  runCommand,
}

func runCommand(cmd *cobra.Command, args []string) {
	command := strings.Join(args, " ")

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
		fmt.Fprintln(os.Stderr, errorStyle.Render("[error] server is not running"))
		fmt.Println()
		fmt.Println(dimStyle.Render("  start it first: mcserver start"))
		os.Exit(1)
	}

	console := newConsole(controller, cfg, log)

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> command: %s", command)))
	fmt.Println()

	res := console.Send(ctx, command)
	if !res.Success {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("  [error] %s", res.Output)))
		os.Exit(1)
	}

	if output := strings.TrimSpace(res.Output); output != "" {
		fmt.Println(output)
		fmt.Println()
	}

	fmt.Println(successStyle.Render("  [done] command delivered"))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(commandCmd)
}
