package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/cobra"
)

var (
	followLogs bool
	tailLines  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Stream game server logs",
	Long:  "Stream logs from the game server container",
	Run:   runLogs,
}

func runLogs(cmd *cobra.Command, args []string) {
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

	fmt.Println(titleStyle.Render(fmt.Sprintf("==> logs: %s", cfg.Docker.ContainerName)))
	fmt.Println()

	logs, err := controller.Logs(context.Background(), tailLines, followLogs)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] failed to get logs: %v", err)))
		os.Exit(1)
	}
	defer logs.Close()

	stdoutPipe, stdoutWriter := io.Pipe()
	stderrPipe, stderrWriter := io.Pipe()

	go func() {
		defer stdoutWriter.Close()
		defer stderrWriter.Close()
		if _, err := stdcopy.StdCopy(stdoutWriter, stderrWriter, logs); err != nil && err != io.EOF {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] error demultiplexing logs: %v", err)))
		}
	}()

	go func() {
		scanner := bufio.NewScanner(stdoutPipe)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
	}()

	scanner := bufio.NewScanner(stderrPipe)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("[error] error reading logs: %v", err)))
		os.Exit(1)
	}
}

func init() {
	logsCmd.Flags().BoolVarP(&followLogs, "follow", "f", false, "Follow log output")
	logsCmd.Flags().StringVar(&tailLines, "tail", "100", "Number of lines to show from the end")
	rootCmd.AddCommand(logsCmd)
}
