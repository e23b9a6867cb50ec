package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

type RuntimeType string

const (
	RuntimeDocker RuntimeType = "docker"
	RuntimePodman RuntimeType = "podman"
)

type RuntimeInfo struct {
	Type       RuntimeType
	SocketPath string
	Version    string
	IsRootless bool
}

// Detect probes for the container runtime the game server runs under. The
// configured socket is tried first, DOCKER_HOST second, then docker is
// preferred over podman.
func Detect(socketPath string) (*RuntimeInfo, error) {
	if socketPath != "" {
		if info, err := detectDocker(socketPath); err == nil {
			return info, nil
		}
	}

	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		if strings.Contains(dockerHost, "podman") {
			return detectPodman()
		}
		return detectDocker(defaultDockerSocket)
	}

	if info, err := detectDocker(defaultDockerSocket); err == nil {
		return info, nil
	}

	if info, err := detectPodman(); err == nil {
		return info, nil
	}

	return nil, fmt.Errorf("no container runtime detected (tried docker, podman)")
}

const defaultDockerSocket = "/var/run/docker.sock"

func detectDocker(socketPath string) (*RuntimeInfo, error) {
	if _, err := exec.LookPath("docker"); err != nil {
		return nil, fmt.Errorf("docker command not found")
	}

	if _, err := os.Stat(socketPath); err != nil {
		return nil, fmt.Errorf("docker socket not found at %s", socketPath)
	}

	cmd := exec.Command("docker", "version", "--format", "{{.Server.Version}}")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get docker version: %w", err)
	}

	return &RuntimeInfo{
		Type:       RuntimeDocker,
		SocketPath: socketPath,
		Version:    strings.TrimSpace(string(output)),
		IsRootless: false,
	}, nil
}

func detectPodman() (*RuntimeInfo, error) {
	if _, err := exec.LookPath("podman"); err != nil {
		return nil, fmt.Errorf("podman command not found")
	}

	isRootless := os.Getuid() != 0

	var socketPath string
	if isRootless {
		socketPath = fmt.Sprintf("/run/user/%d/podman/podman.sock", os.Getuid())
	} else {
		socketPath = "/run/podman/podman.sock"
	}

	if _, err := os.Stat(socketPath); err != nil {
		return nil, fmt.Errorf("podman socket not found at %s, start it with 'podman system service'", socketPath)
	}

	cmd := exec.Command("podman", "version", "--format", "{{.Server.Version}}")
	output, err := cmd.Output()
	if err != nil {
		cmd = exec.Command("podman", "version", "--format", "{{.Client.Version}}")
		output, err = cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("failed to get podman version: %w", err)
		}
	}

	return &RuntimeInfo{
		Type:       RuntimePodman,
		SocketPath: socketPath,
		Version:    strings.TrimSpace(string(output)),
		IsRootless: isRootless,
	}, nil
}

func (r *RuntimeInfo) GetRuntimeName() string {
	name := string(r.Type)
	if r.Type == RuntimePodman && r.IsRootless {
		name += " (rootless)"
	}
	return name
}
