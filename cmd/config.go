package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TanZiPeng/mcserver/internal/config"
	"github.com/TanZiPeng/mcserver/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "manage mcserver configuration",
	Long:  "manage the mcserver configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "create a config file with defaults",
	Long:  "write a default configuration to the resolved config path",
	Run: func(cmd *cobra.Command, args []string) {
		path := config.ResolvePath(cfgFile)

		if _, err := os.Stat(path); err == nil {
			fmt.Println(dimStyle.Render(fmt.Sprintf("config already exists at %s", path)))
			fmt.Println()
			fmt.Println(dimStyle.Render("inspect it with: mcserver config show"))
			return
		}

		manager, err := config.NewManager(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed to write config: %v\n", errorStyle.Render("[error]"), err)
			os.Exit(1)
		}
		cfg := manager.Get()

		fmt.Println()
		fmt.Println(successStyle.Render("  [done]") + " wrote " + valueStyle.Render(path))
		fmt.Println()

		fmt.Println(titleStyle.Render("==> next steps"))
		fmt.Println()
		fmt.Println("  " + dimStyle.Render("1. point the dashboard at your server container:"))
		fmt.Println("  " + infoStyle.Render(fmt.Sprintf("     container_name = \"%s\"", cfg.Docker.ContainerName)))
		fmt.Println()
		fmt.Println("  " + dimStyle.Render("2. set the rcon password from your server.properties"))
		fmt.Println()
		fmt.Println("  " + dimStyle.Render("3. configure the rclone remote backups upload to:"))
		fmt.Println("  " + infoStyle.Render(fmt.Sprintf("     rclone_remote = \"%s\"", cfg.Backup.RcloneRemote)))
		fmt.Println("  " + infoStyle.Render(fmt.Sprintf("     bucket_path = \"%s\"", cfg.Backup.BucketPath)))
		fmt.Println()
		fmt.Println("  " + dimStyle.Render("4. start the dashboard:"))
		fmt.Println("  " + infoStyle.Render("     mcserver serve"))

		if publicIP, err := utils.PublicIP(); err == nil {
			fmt.Println()
			fmt.Println("  " + dimStyle.Render("server ip detected:") + " " + successStyle.Render(publicIP))
			fmt.Println("  " + dimStyle.Render(fmt.Sprintf("players connect at %s:25565", publicIP)))
		}
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "display current configuration",
	Long:  "show the resolved mcserver configuration with secrets masked",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", errorStyle.Render("[error]"), err)
			os.Exit(1)
		}
		cfg := manager.Get()

		fmt.Println()
		fmt.Println(titleStyle.Render("==> mcserver configuration"))
		fmt.Println()
		fmt.Println("  " + dimStyle.Render(fmt.Sprintf("file: %s", manager.Path())))
		fmt.Println()

		fmt.Println("  " + labelStyle.Render("dashboard:"))
		fmt.Println("    listen: " + infoStyle.Render(cfg.Server.Addr()))
		fmt.Println("    refresh interval: " + infoStyle.Render(fmt.Sprintf("%ds", cfg.Server.RefreshInterval)))
		fmt.Println()

		fmt.Println("  " + labelStyle.Render("docker:"))
		fmt.Println("    container: " + infoStyle.Render(cfg.Docker.ContainerName))
		fmt.Println("    socket: " + infoStyle.Render(cfg.Docker.SocketPath))
		fmt.Println()

		fmt.Println("  " + labelStyle.Render("rcon:"))
		fmt.Println("    address: " + infoStyle.Render(cfg.Minecraft.RconAddr()))
		if cfg.Minecraft.RconPassword == "" {
			fmt.Println("    password: " + dimStyle.Render("(not set)"))
		} else {
			fmt.Println("    password: " + dimStyle.Render(utils.MaskSensitive(cfg.Minecraft.RconPassword, 0)))
		}
		fmt.Println()

		fmt.Println("  " + labelStyle.Render("backup:"))
		fmt.Println("    data path: " + infoStyle.Render(cfg.Backup.DataPath))
		fmt.Println("    remote: " + infoStyle.Render(fmt.Sprintf("%s:%s", cfg.Backup.RcloneRemote, cfg.Backup.BucketPath)))
		fmt.Println("    rclone binary: " + infoStyle.Render(cfg.Backup.RclonePath))
		fmt.Println("    history file: " + infoStyle.Render(cfg.Backup.HistoryFile))
		if cfg.Backup.WebhookURL == "" {
			fmt.Println("    webhook: " + dimStyle.Render("(not set)"))
		} else {
			fmt.Println("    webhook: " + infoStyle.Render(utils.MaskSensitive(cfg.Backup.WebhookURL, 24)))
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
