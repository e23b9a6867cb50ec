package mc

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/TanZiPeng/mcserver/internal/docker"
	"go.uber.org/zap"
)

type fakeExecer struct {
	results map[string]*docker.ExecResult
	err     error
	calls   [][]string
}

func (f *fakeExecer) Exec(_ context.Context, cmd []string, user string) (*docker.ExecResult, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.results[cmd[0]]; ok {
		return res, nil
	}
	return &docker.ExecResult{ExitCode: 127}, nil
}

type fakeRcon struct {
	output string
	err    error
	closed bool
}

func (f *fakeRcon) Execute(string) (string, error) { return f.output, f.err }
func (f *fakeRcon) Close() error                   { f.closed = true; return nil }

func newTestConsole(t *testing.T, exec Execer) *Console {
	t.Helper()
	return NewConsole(exec, "localhost:25575", "secret", zap.NewNop())
}

func TestSendViaRconCli(t *testing.T) {
	exec := &fakeExecer{results: map[string]*docker.ExecResult{
		"rcon-cli": {Output: "Seed: [12345]", ExitCode: 0},
	}}
	c := newTestConsole(t, exec)

	res := c.Send(context.Background(), "seed")
	if !res.Success {
		t.Fatalf("Send failed: %+v", res)
	}
	if res.Output != "Seed: [12345]" {
		t.Errorf("output = %q", res.Output)
	}
	if got := exec.calls[0]; !reflect.DeepEqual(got, []string{"rcon-cli", "seed"}) {
		t.Errorf("exec argv = %v", got)
	}
}

func TestSendSplitsArguments(t *testing.T) {
	exec := &fakeExecer{results: map[string]*docker.ExecResult{
		"rcon-cli": {ExitCode: 0},
	}}
	c := newTestConsole(t, exec)

	c.Send(context.Background(), "say hello world")
	want := []string{"rcon-cli", "say", "hello", "world"}
	if !reflect.DeepEqual(exec.calls[0], want) {
		t.Errorf("exec argv = %v, want %v", exec.calls[0], want)
	}
}

func TestSendFallsBackToConsoleInjector(t *testing.T) {
	exec := &fakeExecer{results: map[string]*docker.ExecResult{
		"rcon-cli":           {Output: "not found", ExitCode: 127},
		"mc-send-to-console": {ExitCode: 0},
	}}
	c := newTestConsole(t, exec)

	res := c.Send(context.Background(), "save-all")
	if !res.Success {
		t.Fatalf("Send failed: %+v", res)
	}
	if len(exec.calls) != 2 {
		t.Errorf("expected two exec attempts, got %d", len(exec.calls))
	}
}

func TestSendFallsBackToDirectRcon(t *testing.T) {
	exec := &fakeExecer{err: errors.New("exec unavailable")}
	c := newTestConsole(t, exec)
	session := &fakeRcon{output: "done"}
	c.dial = func(addr, password string) (rconSession, error) {
		if addr != "localhost:25575" || password != "secret" {
			t.Errorf("dial %q with password %q", addr, password)
		}
		return session, nil
	}

	res := c.Send(context.Background(), "save-all")
	if !res.Success || res.Output != "done" {
		t.Fatalf("Send = %+v", res)
	}
	if !session.closed {
		t.Error("rcon session not closed")
	}
}

func TestSendAllMethodsFail(t *testing.T) {
	exec := &fakeExecer{err: errors.New("exec unavailable")}
	c := newTestConsole(t, exec)
	c.dial = func(string, string) (rconSession, error) {
		return nil, errors.New("connection refused")
	}

	res := c.Send(context.Background(), "stop")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.ExitCode != 1 {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(res.Output, "configure rcon") {
		t.Errorf("output should explain the failure: %q", res.Output)
	}
}

func TestQuerySkipsConsoleInjector(t *testing.T) {
	// rcon-cli exits 0 with no output, which is useless for a query
	exec := &fakeExecer{results: map[string]*docker.ExecResult{
		"rcon-cli":           {Output: "  ", ExitCode: 0},
		"mc-send-to-console": {ExitCode: 0},
	}}
	c := newTestConsole(t, exec)
	c.dial = func(string, string) (rconSession, error) {
		return &fakeRcon{output: "There are 0 of a max of 20 players online"}, nil
	}

	out, err := c.Query(context.Background(), "list")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(out, "players online") {
		t.Errorf("output = %q", out)
	}
	for _, call := range exec.calls {
		if call[0] == "mc-send-to-console" {
			t.Error("query must not go through the console injector")
		}
	}
}

func TestPlayers(t *testing.T) {
	exec := &fakeExecer{results: map[string]*docker.ExecResult{
		"rcon-cli": {Output: "There are 2 of a max of 20 players online: alice, bob", ExitCode: 0},
	}}
	c := newTestConsole(t, exec)

	list, err := c.Players(context.Background())
	if err != nil {
		t.Fatalf("Players: %v", err)
	}
	if list.Count != 2 || list.Max != 20 {
		t.Errorf("count/max = %d/%d", list.Count, list.Max)
	}
	if !reflect.DeepEqual(list.Players, []string{"alice", "bob"}) {
		t.Errorf("players = %v", list.Players)
	}
}

func TestParsePlayerList(t *testing.T) {
	cases := []struct {
		name    string
		output  string
		count   int
		max     int
		players []string
	}{
		{
			name:    "with players",
			output:  "There are 2 of a max of 20 players online: alice, bob",
			count:   2,
			max:     20,
			players: []string{"alice", "bob"},
		},
		{
			name:    "empty server",
			output:  "There are 0 of a max of 20 players online",
			count:   0,
			max:     20,
			players: []string{},
		},
		{
			name:    "trailing whitespace names",
			output:  "There are 1 of a max of 10 players online:  steve ,",
			count:   1,
			max:     10,
			players: []string{"steve"},
		},
		{
			name:    "unrecognized text",
			output:  "Unknown command",
			players: []string{},
		},
		{
			name:    "empty output",
			output:  "",
			players: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list := parsePlayerList(tc.output)
			if list.Count != tc.count || list.Max != tc.max {
				t.Errorf("count/max = %d/%d, want %d/%d", list.Count, list.Max, tc.count, tc.max)
			}
			if !reflect.DeepEqual(list.Players, tc.players) {
				t.Errorf("players = %v, want %v", list.Players, tc.players)
			}
		})
	}
}
