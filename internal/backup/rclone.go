package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	ModeSync = "sync"
	ModeCopy = "copy"
)

// defaultExcludes keeps transient server files out of full-tree backups.
var defaultExcludes = []string{"*.tmp", "*.log", "*.lock", "logs/**", "crash-reports/**"}

// Invocation is one sync-tool run: a full-tree mirror or a single-path copy.
type Invocation struct {
	Mode     string
	Source   string
	Dest     string
	Excludes []string
}

// Args assembles the rclone argument list for this invocation.
func (inv Invocation) Args() []string {
	args := []string{
		inv.Mode,
		inv.Source,
		inv.Dest,
		"--transfers", "4",
		"--checkers", "8",
		"--copy-links",
		"--no-update-modtime",
	}

	for _, pattern := range inv.Excludes {
		args = append(args, "--exclude", pattern)
	}

	return append(args, "--progress", "--stats", "1s", "-v")
}

// BuildInvocations plans the sub-transfers for a job. With no selection the
// whole data path is mirrored in one sync; otherwise each selected path that
// exists becomes its own copy and missing paths are skipped.
func BuildInvocations(dataPath, remotePath string, selected []string) []Invocation {
	if len(selected) == 0 {
		return []Invocation{{
			Mode:     ModeSync,
			Source:   dataPath,
			Dest:     remotePath,
			Excludes: defaultExcludes,
		}}
	}

	var invs []Invocation
	for _, rel := range selected {
		source := filepath.Join(dataPath, rel)
		if _, err := os.Stat(source); err != nil {
			continue
		}

		invs = append(invs, Invocation{
			Mode:   ModeCopy,
			Source: source,
			Dest:   remotePath + "/" + rel,
		})
	}

	return invs
}

// SyncResult carries one sub-transfer outcome. Err is set only when the tool
// could not run at all; a tool that ran and failed reports through ExitCode.
type SyncResult struct {
	Output    string
	ErrOutput string
	ExitCode  int
	Err       error
}

// Syncer runs a single sub-transfer.
type Syncer interface {
	Run(ctx context.Context, inv Invocation) SyncResult
}

// CommandSyncer shells out to the rclone binary.
type CommandSyncer struct {
	// Bin is the rclone executable; empty means "rclone" from PATH.
	Bin string
}

func (s *CommandSyncer) Run(ctx context.Context, inv Invocation) SyncResult {
	bin := s.Bin
	if bin == "" {
		bin = "rclone"
	}

	cmd := exec.CommandContext(ctx, bin, inv.Args()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := SyncResult{
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Err = fmt.Errorf("failed to run %s: %w", bin, err)
		}
	}

	return res
}
