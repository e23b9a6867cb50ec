package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/TanZiPeng/mcserver/internal/config"
	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/TanZiPeng/mcserver/internal/runtime"
	"github.com/TanZiPeng/mcserver/internal/utils"
	"github.com/TanZiPeng/mcserver/pkg/models"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system health and dependencies",
	Long:  "Verify that the container runtime, rclone and the configuration are usable",
	Run:   runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println(titleStyle.Render("==> checking system health"))
	fmt.Println()

	cfg := doctorConfig()

	allGood := true

	allGood = checkRuntime(cfg) && allGood
	allGood = checkConfigFile() && allGood
	allGood = checkContainer(cfg) && allGood
	allGood = checkRclone(cfg) && allGood
	allGood = checkDataPath(cfg) && allGood
	allGood = checkHistory(cfg) && allGood

	fmt.Println()
	if allGood {
		fmt.Println(successStyle.Render("  [done] all checks passed"))
		fmt.Println()
		fmt.Println(dimStyle.Render("  your mcserver installation is healthy and ready to use"))
	} else {
		fmt.Println(errorStyle.Render("  [error] some checks failed"))
		fmt.Println()
		fmt.Println(dimStyle.Render("  fix the issues above before serving the dashboard"))
		os.Exit(1)
	}
}

// doctorConfig reads the config without creating it, so a plain 'doctor'
// run leaves no files behind.
func doctorConfig() models.Config {
	path := config.ResolvePath(cfgFile)
	if _, err := os.Stat(path); err != nil {
		return *models.DefaultConfig()
	}

	manager, err := config.NewManager(path)
	if err != nil {
		return *models.DefaultConfig()
	}
	return manager.Get()
}

func checkRuntime(cfg models.Config) bool {
	fmt.Println(labelStyle.Render("  runtime"))

	info, err := runtime.Detect(cfg.Docker.SocketPath)
	if err != nil {
		fmt.Printf("    %s runtime not detected\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		fmt.Printf("      %s\n", dimStyle.Render("install docker or podman to continue"))
		return false
	}

	fmt.Printf("    %s %s detected\n", successStyle.Render("[✓]"), valueStyle.Render(info.GetRuntimeName()))
	fmt.Printf("      %s %s\n", dimStyle.Render("version:"), dimStyle.Render(info.Version))
	fmt.Printf("      %s %s\n", dimStyle.Render("socket:"), dimStyle.Render(info.SocketPath))

	client, err := docker.NewClient(cfg.Docker.SocketPath)
	if err != nil {
		fmt.Printf("    %s runtime daemon not responding\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		return false
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		fmt.Printf("    %s runtime daemon not responding\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		return false
	}

	fmt.Printf("    %s daemon running\n", successStyle.Render("[✓]"))
	fmt.Println()

	return true
}

func checkConfigFile() bool {
	fmt.Println(labelStyle.Render("  configuration"))

	path := config.ResolvePath(cfgFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("    %s %s missing\n", errorStyle.Render("[!]"), dimStyle.Render(path))
		fmt.Printf("      %s\n", dimStyle.Render("run 'mcserver config init' to create it, defaults apply until then"))
		fmt.Println()
		return true
	}

	if _, err := config.NewManager(path); err != nil {
		fmt.Printf("    %s %s unreadable\n", errorStyle.Render("[✗]"), dimStyle.Render(path))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		fmt.Println()
		return false
	}

	fmt.Printf("    %s %s\n", successStyle.Render("[✓]"), dimStyle.Render(path))
	fmt.Println()

	return true
}

func checkContainer(cfg models.Config) bool {
	fmt.Println(labelStyle.Render("  server container"))

	client, err := docker.NewClient(cfg.Docker.SocketPath)
	if err != nil {
		fmt.Printf("    %s cannot check container\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		return false
	}
	defer client.Close()

	controller := docker.NewController(client, cfg.Docker.ContainerName)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	inspect, err := controller.Inspect(ctx)
	if err != nil {
		if errors.Is(err, docker.ErrContainerNotFound) {
			fmt.Printf("    %s container '%s' does not exist\n", errorStyle.Render("[✗]"), cfg.Docker.ContainerName)
			fmt.Printf("      %s\n", dimStyle.Render("create it or fix container_name in the config"))
			return false
		}
		fmt.Printf("    %s cannot inspect container\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		return false
	}

	if inspect.State != nil && inspect.State.Running {
		fmt.Printf("    %s %s running\n", successStyle.Render("[✓]"), valueStyle.Render(cfg.Docker.ContainerName))
		if inspect.Config != nil {
			fmt.Printf("      %s %s\n", dimStyle.Render("image:"), dimStyle.Render(inspect.Config.Image))
		}
	} else {
		fmt.Printf("    %s %s not running\n", errorStyle.Render("[!]"), valueStyle.Render(cfg.Docker.ContainerName))
		fmt.Printf("      %s\n", dimStyle.Render("start it with: mcserver start"))
	}

	fmt.Println()
	return true
}

func checkRclone(cfg models.Config) bool {
	fmt.Println(labelStyle.Render("  rclone"))

	path, err := exec.LookPath(cfg.Backup.RclonePath)
	if err != nil {
		fmt.Printf("    %s rclone not found\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(fmt.Sprintf("looked for '%s'", cfg.Backup.RclonePath)))
		fmt.Printf("      %s\n", dimStyle.Render("install rclone or set rclone_path in the config"))
		return false
	}

	fmt.Printf("    %s %s\n", successStyle.Render("[✓]"), dimStyle.Render(path))
	fmt.Println()

	return true
}

func checkDataPath(cfg models.Config) bool {
	fmt.Println(labelStyle.Render("  server data"))

	dataPath, err := utils.ValidateDataPath(cfg.Backup.DataPath)
	if err != nil {
		fmt.Printf("    %s data path not usable\n", errorStyle.Render("[✗]"))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		fmt.Printf("      %s\n", dimStyle.Render("set mc_server_path to the directory the container mounts"))
		return false
	}

	fmt.Printf("    %s %s\n", successStyle.Render("[✓]"), dimStyle.Render(dataPath))

	if _, err := os.Stat(filepath.Join(dataPath, "world")); os.IsNotExist(err) {
		fmt.Printf("    %s no world directory yet\n", errorStyle.Render("[!]"))
		fmt.Printf("      %s\n", dimStyle.Render("it appears once the server generates the map"))
	}

	fmt.Println()
	return true
}

func checkHistory(cfg models.Config) bool {
	fmt.Println(labelStyle.Render("  backup history"))

	data, err := os.ReadFile(cfg.Backup.HistoryFile)
	if os.IsNotExist(err) {
		fmt.Printf("    %s %s missing\n", errorStyle.Render("[!]"), dimStyle.Render(cfg.Backup.HistoryFile))
		fmt.Printf("      %s\n", dimStyle.Render("will be created on first backup"))
		fmt.Println()
		return true
	}
	if err != nil {
		fmt.Printf("    %s cannot read %s\n", errorStyle.Render("[✗]"), dimStyle.Render(cfg.Backup.HistoryFile))
		fmt.Printf("      %s\n", dimStyle.Render(err.Error()))
		fmt.Println()
		return false
	}

	var records []backup.Record
	if err := json.Unmarshal(data, &records); err != nil {
		fmt.Printf("    %s %s corrupted\n", errorStyle.Render("[✗]"), dimStyle.Render(cfg.Backup.HistoryFile))
		fmt.Printf("      %s\n", dimStyle.Render("move it aside, a fresh one is written on the next backup"))
		fmt.Println()
		return false
	}

	fmt.Printf("    %s %s (%d backups)\n", successStyle.Render("[✓]"), dimStyle.Render(cfg.Backup.HistoryFile), len(records))
	fmt.Println()

	return true
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
