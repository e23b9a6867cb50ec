package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

var ErrContainerNotFound = errors.New("container not found")

// Controller operates on the single game-server container this process
// manages, addressed by name.
type Controller struct {
	client *Client
	name   string
}

func NewController(client *Client, containerName string) *Controller {
	return &Controller{
		client: client,
		name:   containerName,
	}
}

func (c *Controller) Name() string {
	return c.name
}

type ContainerInfo struct {
	ID            string
	Name          string
	Status        string
	Running       bool
	Image         string
	StartedAt     string
	Ports         []string
	CPUPercent    float64
	MemoryUsageMB float64
	MemoryLimitMB float64
	MemoryPercent float64
}

type ExecResult struct {
	Output   string
	ExitCode int
}

func (c *Controller) Inspect(ctx context.Context) (types.ContainerJSON, error) {
	opCtx, cancel := context.WithTimeout(ctx, ContainerOpTimeout)
	defer cancel()

	inspect, err := c.client.GetClient().ContainerInspect(opCtx, c.name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return types.ContainerJSON{}, fmt.Errorf("container %s: %w", c.name, ErrContainerNotFound)
		}
		return types.ContainerJSON{}, fmt.Errorf("failed to inspect container %s: %w", c.name, err)
	}

	return inspect, nil
}

// Status returns the engine state string, or "not found" when the container
// does not exist.
func (c *Controller) Status(ctx context.Context) (string, error) {
	inspect, err := c.Inspect(ctx)
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			return "not found", nil
		}
		return "", err
	}

	return inspect.State.Status, nil
}

func (c *Controller) Running(ctx context.Context) (bool, error) {
	inspect, err := c.Inspect(ctx)
	if err != nil {
		return false, err
	}
	return inspect.State.Running, nil
}

// Info combines inspect data with a one-shot stats sample when the container
// is running.
func (c *Controller) Info(ctx context.Context) (*ContainerInfo, error) {
	inspect, err := c.Inspect(ctx)
	if err != nil {
		return nil, err
	}

	info := &ContainerInfo{
		ID:      inspect.ID,
		Name:    c.name,
		Status:  inspect.State.Status,
		Running: inspect.State.Running,
	}

	info.StartedAt = inspect.State.StartedAt
	if inspect.Config != nil {
		info.Image = inspect.Config.Image
	}
	if inspect.NetworkSettings != nil {
		info.Ports = formatPorts(inspect.NetworkSettings.Ports)
	}

	if inspect.State.Running {
		if err := c.collectStats(ctx, info); err != nil {
			return nil, err
		}
	}

	return info, nil
}

func (c *Controller) collectStats(ctx context.Context, info *ContainerInfo) error {
	statsCtx, cancel := context.WithTimeout(ctx, StatsTimeout)
	defer cancel()

	resp, err := c.client.GetClient().ContainerStats(statsCtx, c.name, false)
	if err != nil {
		return fmt.Errorf("failed to read container stats: %w", err)
	}
	defer resp.Body.Close()

	var stats container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("failed to decode container stats: %w", err)
	}

	info.CPUPercent = round2(cpuPercent(&stats))

	usage := float64(stats.MemoryStats.Usage)
	limit := float64(stats.MemoryStats.Limit)
	info.MemoryUsageMB = round2(usage / 1024 / 1024)
	info.MemoryLimitMB = round2(limit / 1024 / 1024)
	if limit > 0 {
		info.MemoryPercent = round2(usage / limit * 100)
	}

	return nil
}

func cpuPercent(stats *container.StatsResponse) float64 {
	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage) - float64(stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemUsage) - float64(stats.PreCPUStats.SystemUsage)
	if systemDelta <= 0 || cpuDelta < 0 {
		return 0
	}

	// cgroup v2 engines report online cpus instead of per-cpu samples
	ncpus := float64(stats.CPUStats.OnlineCPUs)
	if ncpus == 0 {
		ncpus = float64(len(stats.CPUStats.CPUUsage.PercpuUsage))
	}

	return cpuDelta / systemDelta * ncpus * 100
}

func formatPorts(portMap nat.PortMap) []string {
	var ports []string
	for port, bindings := range portMap {
		if len(bindings) == 0 {
			ports = append(ports, string(port))
			continue
		}
		for _, binding := range bindings {
			ports = append(ports, fmt.Sprintf("%s -> %s:%s", string(port), binding.HostIP, binding.HostPort))
		}
	}
	sort.Strings(ports)
	return ports
}

func (c *Controller) Start(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, ContainerOpTimeout)
	defer cancel()

	if err := c.client.GetClient().ContainerStart(opCtx, c.name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", c.name, err)
	}

	return nil
}

func (c *Controller) Stop(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, ContainerOpTimeout)
	defer cancel()

	grace := StopGraceSeconds
	if err := c.client.GetClient().ContainerStop(opCtx, c.name, container.StopOptions{
		Timeout: &grace,
	}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", c.name, err)
	}

	return nil
}

func (c *Controller) Restart(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, RestartOpTimeout)
	defer cancel()

	grace := RestartGraceSeconds
	if err := c.client.GetClient().ContainerRestart(opCtx, c.name, container.StopOptions{
		Timeout: &grace,
	}); err != nil {
		return fmt.Errorf("failed to restart container %s: %w", c.name, err)
	}

	return nil
}

func (c *Controller) Logs(ctx context.Context, tail string, follow bool) (io.ReadCloser, error) {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Timestamps: true,
	}
	if tail != "" {
		options.Tail = tail
	}

	logs, err := c.client.GetClient().ContainerLogs(ctx, c.name, options)
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}

	return logs, nil
}

// Exec runs a command inside the container and waits for it to finish.
// Output is the demultiplexed stdout followed by stderr.
func (c *Controller) Exec(ctx context.Context, cmd []string, user string) (*ExecResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, ExecTimeout)
	defer cancel()

	cli := c.client.GetClient()

	execID, err := cli.ContainerExecCreate(execCtx, c.name, container.ExecOptions{
		User:         user,
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := cli.ContainerExecAttach(execCtx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil {
		return nil, fmt.Errorf("failed to read exec output: %w", err)
	}

	inspect, err := cli.ContainerExecInspect(execCtx, execID.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return &ExecResult{
		Output:   stdout.String() + stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
