package models

import "fmt"

type Config struct {
	Server    ServerConfig    `toml:"server" json:"server"`
	Docker    DockerConfig    `toml:"docker" json:"docker"`
	Minecraft MinecraftConfig `toml:"minecraft" json:"minecraft"`
	Backup    BackupConfig    `toml:"backup" json:"backup"`
}

type ServerConfig struct {
	Host            string `toml:"host" json:"host"`
	Port            int    `toml:"port" json:"port"`
	RefreshInterval int    `toml:"refresh_interval" json:"refresh_interval"`
}

type DockerConfig struct {
	ContainerName string `toml:"container_name" json:"container_name"`
	SocketPath    string `toml:"socket_path" json:"socket_path"`
}

type MinecraftConfig struct {
	RconHost     string `toml:"rcon_host" json:"rcon_host"`
	RconPort     int    `toml:"rcon_port" json:"rcon_port"`
	RconPassword string `toml:"rcon_password" json:"rcon_password"`
}

type BackupConfig struct {
	DataPath     string `toml:"mc_server_path" json:"mc_server_path"`
	RcloneRemote string `toml:"rclone_remote" json:"rclone_remote"`
	BucketPath   string `toml:"bucket_path" json:"bucket_path"`
	RclonePath   string `toml:"rclone_path" json:"rclone_path"`
	WebhookURL   string `toml:"webhook_url" json:"webhook_url"`
	HistoryFile  string `toml:"history_file" json:"history_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			RefreshInterval: 5,
		},
		Docker: DockerConfig{
			ContainerName: "minecraft-server",
			SocketPath:    "/var/run/docker.sock",
		},
		Minecraft: MinecraftConfig{
			RconHost: "localhost",
			RconPort: 25575,
		},
		Backup: BackupConfig{
			DataPath:     "/srv/minecraft",
			RcloneRemote: "r2",
			BucketPath:   "minecraft-backups",
			RclonePath:   "rclone",
			HistoryFile:  "backup_history.json",
		},
	}
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (m MinecraftConfig) RconAddr() string {
	return fmt.Sprintf("%s:%d", m.RconHost, m.RconPort)
}
