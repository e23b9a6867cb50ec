package mc

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/TanZiPeng/mcserver/internal/docker"
	"github.com/gorcon/rcon"
	"go.uber.org/zap"
)

// Execer runs a command inside the game container.
type Execer interface {
	Exec(ctx context.Context, cmd []string, user string) (*docker.ExecResult, error)
}

type rconSession interface {
	Execute(command string) (string, error)
	Close() error
}

// Console forwards admin commands to the game server. It tries the helper
// binaries shipped inside common server images first and falls back to a
// direct rcon connection.
type Console struct {
	exec     Execer
	rconAddr string
	rconPass string
	log      *zap.Logger

	dial func(addr, password string) (rconSession, error)
}

func NewConsole(exec Execer, rconAddr, rconPassword string, log *zap.Logger) *Console {
	return &Console{
		exec:     exec,
		rconAddr: rconAddr,
		rconPass: rconPassword,
		log:      log,
		dial: func(addr, password string) (rconSession, error) {
			return rcon.Dial(addr, password)
		},
	}
}

type CommandResult struct {
	Output   string
	ExitCode int
	Success  bool
}

type PlayerList struct {
	Players []string
	Count   int
	Max     int
}

var playersOnlineRe = regexp.MustCompile(`There are (\d+) of a max of (\d+) players online`)

// Send delivers a command to the server console. It never returns an error;
// total failure is reported through the result.
func (c *Console) Send(ctx context.Context, command string) *CommandResult {
	fields := strings.Fields(command)

	if res, err := c.exec.Exec(ctx, append([]string{"rcon-cli"}, fields...), "root"); err == nil && res.ExitCode == 0 {
		return &CommandResult{Output: res.Output, Success: true}
	} else if err != nil {
		c.log.Debug("rcon-cli not usable", zap.Error(err))
	}

	if res, err := c.exec.Exec(ctx, append([]string{"mc-send-to-console"}, fields...), "root"); err == nil && res.ExitCode == 0 {
		return &CommandResult{Output: res.Output, Success: true}
	} else if err != nil {
		c.log.Debug("mc-send-to-console not usable", zap.Error(err))
	}

	output, err := c.rconExecute(command)
	if err != nil {
		c.log.Warn("all command delivery methods failed", zap.String("command", command), zap.Error(err))
		return &CommandResult{
			Output:   fmt.Sprintf("command failed: %v. configure rcon or use an image that ships rcon-cli or mc-send-to-console", err),
			ExitCode: 1,
		}
	}

	return &CommandResult{Output: output, Success: true}
}

// Query runs a command whose response text is needed, skipping the
// console-injection path which cannot capture server output.
func (c *Console) Query(ctx context.Context, command string) (string, error) {
	res, err := c.exec.Exec(ctx, append([]string{"rcon-cli"}, strings.Fields(command)...), "root")
	if err == nil && res.ExitCode == 0 && strings.TrimSpace(res.Output) != "" {
		return res.Output, nil
	}
	if err != nil {
		c.log.Debug("rcon-cli not usable", zap.Error(err))
	}

	output, err := c.rconExecute(command)
	if err != nil {
		return "", fmt.Errorf("failed to query server: %w", err)
	}

	return output, nil
}

// Players asks the server for the online player list.
func (c *Console) Players(ctx context.Context) (*PlayerList, error) {
	output, err := c.Query(ctx, "list")
	if err != nil {
		return nil, err
	}
	return parsePlayerList(output), nil
}

func (c *Console) rconExecute(command string) (string, error) {
	conn, err := c.dial(c.rconAddr, c.rconPass)
	if err != nil {
		return "", fmt.Errorf("rcon dial %s: %w", c.rconAddr, err)
	}
	defer conn.Close()

	output, err := conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("rcon execute: %w", err)
	}

	return output, nil
}

// parsePlayerList extracts counts and names from the vanilla "list" response:
// "There are 2 of a max of 20 players online: alice, bob". Unexpected text
// degrades to zero values rather than an error.
func parsePlayerList(output string) *PlayerList {
	list := &PlayerList{Players: []string{}}

	if output == "" || !strings.Contains(strings.ToLower(output), "online") {
		return list
	}

	if m := playersOnlineRe.FindStringSubmatch(output); m != nil {
		list.Count, _ = strconv.Atoi(m[1])
		list.Max, _ = strconv.Atoi(m[2])
	}

	parts := strings.SplitN(output, "online:", 2)
	if len(parts) != 2 {
		return list
	}

	names := strings.TrimSpace(parts[1])
	if names == "" || strings.EqualFold(names, "there are no players online") {
		return list
	}

	for _, name := range strings.Split(names, ",") {
		if name = strings.TrimSpace(name); name != "" {
			list.Players = append(list.Players, name)
		}
	}

	return list
}
