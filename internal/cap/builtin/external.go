package builtin

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/marcelocantos/ish/internal/cap"
)

// runExternal resolves name on the search path and starts it with the
// context's handles as its standard streams. The parent's copies are
// closed as soon as the child holds them, so pipe readers see end-of-file
// when the child exits. The child is returned un-waited.
func runExternal(ctx context.Context, env *cap.Env, name string, args []string, ec *cap.ExecutionContext) cap.Result {
	defer ec.Close()
	log := env.Logger()

	path, ok := env.Path.Lookup(name)
	if !ok {
		if f := ec.Stderr(); f != nil {
			fmt.Fprintf(f, "%s: command not found\n", name)
		}
		return cap.Result{Code: 1}
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Args[0] = name
	// Assign only live handles: a typed nil in the interface would not
	// read as "no stream" to os/exec.
	if f := ec.Stdin(); f != nil {
		cmd.Stdin = f
	}
	if f := ec.Stdout(); f != nil {
		cmd.Stdout = f
	}
	if f := ec.Stderr(); f != nil {
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		if f := ec.Stderr(); f != nil {
			fmt.Fprintf(f, "%s: failed to execute: %v\n", name, err)
		}
		return cap.Result{Code: 1}
	}
	log.Debug("spawn", "name", name, "path", path, "pid", cmd.Process.Pid)
	return cap.Result{Child: cmd}
}

// Wait reaps a child started by Execute and translates its status into an
// exit code. A child killed by signal N reports 128+N.
func Wait(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if cmd.ProcessState == nil {
		return 1, fmt.Errorf("wait %s: %w", cmd.Args[0], err)
	}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return cmd.ProcessState.ExitCode(), fmt.Errorf("wait %s: %w", cmd.Args[0], err)
	}
	return cmd.ProcessState.ExitCode(), nil
}
