package cmd

import (
	"github.com/TanZiPeng/mcserver/internal/backup"
	"github.com/TanZiPeng/mcserver/internal/config"
	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/TanZiPeng/mcserver/internal/logger"
	"github.com/TanZiPeng/mcserver/internal/mc"
	"github.com/TanZiPeng/mcserver/pkg/models"
	"go.uber.org/zap"
)

// loadConfig opens the config file named by the --config flag, the
// MCSERVER_CONFIG variable or the default path, creating it on first use.
func loadConfig() (*config.Manager, error) {
	return config.NewManager(config.ResolvePath(cfgFile))
}

func newLogger() (*zap.Logger, error) {
	return logger.New(verbose)
}

// newController connects to the container engine named in cfg and wraps the
// managed game container.
func newController(cfg models.Config) (*docker.Client, *docker.Controller, error) {
	client, err := docker.NewClient(cfg.Docker.SocketPath)
	if err != nil {
		return nil, nil, err
	}

	return client, docker.NewController(client, cfg.Docker.ContainerName), nil
}

func newConsole(controller *docker.Controller, cfg models.Config, log *zap.Logger) *mc.Console {
	return mc.NewConsole(controller, cfg.Minecraft.RconAddr(), cfg.Minecraft.RconPassword, log)
}

// newBackupComponents wires the ledger, webhook notifier and job runner.
// Source path, remote and bucket re-resolve from the manager at every job
// start so dashboard config edits apply without a restart.
func newBackupComponents(manager *config.Manager, log *zap.Logger) (*backup.History, *backup.Runner) {
	cfg := manager.Get()

	history := backup.NewHistory(cfg.Backup.HistoryFile, log)
	notifier := backup.NewWebhookNotifier(cfg.Backup.WebhookURL, log)
	syncer := &backup.CommandSyncer{Bin: cfg.Backup.RclonePath}

	settings := func() backup.Settings {
		current := manager.Get()
		return backup.Settings{
			DataPath: current.Backup.DataPath,
			Remote:   current.Backup.RcloneRemote,
			Bucket:   current.Backup.BucketPath,
		}
	}

	return history, backup.NewRunner(history, syncer, notifier, settings, log)
}
