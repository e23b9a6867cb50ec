package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TanZiPeng/mcserver/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveTemplates string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	Long:  "Serve the dashboard pages and the JSON API for managing the game server",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
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

	console := newConsole(controller, cfg, log)
	history, runner := newBackupComponents(manager, log)

	srv := server.New(server.Deps{
		Containers: controller,
		Console:    console,
		Runner:     runner,
		History:    history,
		Config:     manager,
		Log:        log,
		Templates:  serveTemplates,
	})

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> serving dashboard on %s", cfg.Server.Addr())))
	fmt.Println()
	fmt.Printf("    %s %s\n", dimStyle.Render("container:"), valueStyle.Render(cfg.Docker.ContainerName))
	fmt.Printf("    %s %s\n", dimStyle.Render("config:"), dimStyle.Render(manager.Path()))
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(cfg.Server.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] server failed: %v", err)))
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] shutdown failed: %v", err)))
			os.Exit(1)
		}

		fmt.Println(successStyle.Render("  [done] dashboard stopped"))
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveTemplates, "templates", "templates", "directory holding the dashboard pages")
	rootCmd.AddCommand(serveCmd)
}
