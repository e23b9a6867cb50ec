package docker

import (
	"context"
	"fmt"
	"os"

	"github.com/TanZiPeng/mcserver/internal/runtime"
	"github.com/docker/docker/client"
)

type Client struct {
	cli *client.Client
	ctx context.Context
}

// NewClient connects to the container runtime. An explicit socket path takes
// precedence over DOCKER_HOST; with neither set the socket is probed.
func NewClient(socketPath string) (*Client, error) {
	if socketPath != "" {
		os.Setenv("DOCKER_HOST", "unix://"+socketPath)
	} else if os.Getenv("DOCKER_HOST") == "" {
		info, err := runtime.Detect("")
		if err != nil {
			return nil, fmt.Errorf("failed to detect container runtime: %w", err)
		}

		os.Setenv("DOCKER_HOST", "unix://"+info.SocketPath)
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create container runtime client: %w", err)
	}

	return &Client{
		cli: cli,
		ctx: context.Background(),
	}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) GetContext() context.Context {
	return c.ctx
}

func (c *Client) GetClient() *client.Client {
	return c.cli
}

// Ping verifies the runtime daemon is responding.
func (c *Client) Ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if _, err := c.cli.Ping(pctx); err != nil {
		return fmt.Errorf("container runtime not responding: %w", err)
	}
	return nil
}
