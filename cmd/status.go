package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/TanZiPeng/mcserver/internal/utils"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show game server status",
	Long:  "Display container state and live resource usage for the game server",
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
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

	info, err := controller.Info(context.Background())
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			fmt.Println(dimStyle.Render(fmt.Sprintf("container '%s' does not exist", cfg.Docker.ContainerName)))
			fmt.Println()
			fmt.Println(dimStyle.Render("  create the container first, then manage it from here"))
			return
		}
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to read status: %v", err)))
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> status: %s", cfg.Docker.ContainerName)))
	fmt.Println()

	fmt.Println(labelStyle.Render("  container:"))
	fmt.Printf("    %s %s\n", dimStyle.Render("id:"), dimStyle.Render(utils.TruncateID(info.ID, 12)))
	fmt.Printf("    %s %s\n", dimStyle.Render("image:"), valueStyle.Render(info.Image))

	statusColor := "240"
	if info.Running {
		statusColor = "10"
	}
	statusStyled := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor)).Render(info.Status)
	fmt.Printf("    %s %s\n", dimStyle.Render("status:"), statusStyled)

	if info.Running && info.StartedAt != "" {
		fmt.Printf("    %s %s\n", dimStyle.Render("started:"), valueStyle.Render(info.StartedAt))
	}
	fmt.Println()

	if info.Running {
		fmt.Println(labelStyle.Render("  resources:"))
		fmt.Printf("    %s %s\n", dimStyle.Render("cpu:"), valueStyle.Render(fmt.Sprintf("%.2f%%", info.CPUPercent)))
		fmt.Printf("    %s %s\n", dimStyle.Render("memory:"),
			valueStyle.Render(fmt.Sprintf("%.2f MB / %.2f MB (%.2f%%)", info.MemoryUsageMB, info.MemoryLimitMB, info.MemoryPercent)))
		fmt.Println()
	}

	if len(info.Ports) > 0 {
		fmt.Println(labelStyle.Render("  ports:"))
		for _, port := range info.Ports {
			fmt.Printf("    %s %s\n", dimStyle.Render("•"), valueStyle.Render(port))
		}
		fmt.Println()
	}

	fmt.Println(dimStyle.Render("  quick actions:"))
	fmt.Printf("    %s\n", dimStyle.Render("mcserver logs -f            # stream logs"))
	fmt.Printf("    %s\n", dimStyle.Render("mcserver players            # who is online"))
	fmt.Printf("    %s\n", dimStyle.Render("mcserver command \"say hi\"   # run a console command"))
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
