package fixture

import (
	"errors"
	"fmt"

	shellquote "github.com/kballard/go-shellquote"
)

// ErrNotStarted is returned by operations that need a container before one
// has been created.
var ErrNotStarted = errors.New("fixture container not started")

// ErrExecTimeout matches an ExecError whose exit code never resolved.
var ErrExecTimeout = errors.New("exec exit code did not resolve")

// ExecError reports a command that timed out or exited non-zero.
// Output holds whatever the command wrote before it failed.
type ExecError struct {
	Cmd      []string
	ExitCode int
	Output   []byte
	TimedOut bool
}

func (e *ExecError) Error() string {
	cmd := shellquote.Join(e.Cmd...)
	if e.TimedOut {
		return fmt.Sprintf("command %s timed out, output: %s", cmd, e.Output)
	}
	return fmt.Sprintf("command %s failed to execute, return code: %d", cmd, e.ExitCode)
}

// Is reports timeouts as ErrExecTimeout.
func (e *ExecError) Is(target error) bool {
	return target == ErrExecTimeout && e.TimedOut
}
