package circuit

import (
	"context"
	"os"
	"os/exec"
	"time"
)

// Command is a single subprocess invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Executor runs subprocesses. It returns the combined output and a non-nil
// error for a non-zero exit. Implementations must stop the process when ctx
// ends.
type Executor interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecExecutor runs commands with os/exec.
type ExecExecutor struct {
	// WaitDelay bounds how long to wait for output pipes after the process
	// is killed.
	WaitDelay time.Duration
}

// Run implements Executor.
func (e ExecExecutor) Run(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 2 * time.Second
	}
	return cmd.CombinedOutput()
}
