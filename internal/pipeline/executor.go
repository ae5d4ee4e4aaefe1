package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/marcelocantos/ish/internal/cap"
	"github.com/marcelocantos/ish/internal/cap/builtin"
)

// ExitError represents a command line that finished with a non-zero
// status. It carries the code so callers can propagate it without extra
// messaging.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "" // the command's own stderr is sufficient
}

// ExitRequest is returned when the exit builtin ran as a simple command.
// The caller should stop reading lines and terminate with Code.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

func statusError(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// Executor runs parsed command lines.
type Executor struct {
	env *cap.Env
}

// NewExecutor returns an executor dispatching through env.
func NewExecutor(env *cap.Env) *Executor {
	return &Executor{env: env}
}

// stage is one launched command awaiting the wait point.
type stage struct {
	name  string
	child *exec.Cmd
	done  <-chan error // builtin output still being delivered
	code  int
	exit  bool
}

// Execute runs ct. base holds the shell's current stream handles; it is
// duplicated per stage and remains owned by the caller. The result is nil
// for status 0, *ExitError for any other status, *ExitRequest when the
// exit builtin ran, or an error for failures that stopped the line from
// being run at all.
func (x *Executor) Execute(ctx context.Context, ct CommandType, base *cap.ExecutionContext) error {
	switch {
	case len(ct.Commands) == 0:
		return nil
	case !ct.Pipeline:
		return x.runSimple(ctx, ct.Commands[0], base)
	default:
		return x.runPipeline(ctx, ct.Commands, base)
	}
}

func (x *Executor) runSimple(ctx context.Context, c Command, base *cap.ExecutionContext) error {
	in, err := base.Clone(0)
	if err != nil {
		return fmt.Errorf("duplicate stdin: %w", err)
	}
	out, err := base.Clone(1)
	if err != nil {
		closeFiles(in)
		return fmt.Errorf("duplicate stdout: %w", err)
	}
	sc, err := stageContext(base, in, out)
	if err != nil {
		return err
	}
	st := x.launch(ctx, c, sc, base, false)
	code := x.wait(st)
	if st.exit {
		return &ExitRequest{Code: code}
	}
	return statusError(code)
}

// runPipeline wires one OS pipe between each adjacent pair of stages and
// launches the stages in order. Each pipe end is owned by exactly one
// stage context; once a stage is dispatched its handles are released, so
// a reader sees end-of-file when its writer finishes. All stages are
// reaped afterwards in launch order and the status is the last stage's.
func (x *Executor) runPipeline(ctx context.Context, cmds []Command, base *cap.ExecutionContext) error {
	log := x.env.Logger()
	n := len(cmds)
	stages := make([]stage, 0, n)

	var next *os.File // read end feeding the following stage
	var failure error
	for i, c := range cmds {
		in := next
		next = nil
		if i == 0 {
			var err error
			if in, err = base.Clone(0); err != nil {
				failure = fmt.Errorf("duplicate stdin: %w", err)
				break
			}
		}

		var out *os.File
		if i < n-1 {
			r, w, err := os.Pipe()
			if err != nil {
				closeFiles(in)
				failure = fmt.Errorf("create pipe: %w", err)
				break
			}
			log.Debug("pipe", "stage", i)
			out, next = w, r
		} else {
			var err error
			if out, err = base.Clone(1); err != nil {
				closeFiles(in)
				failure = fmt.Errorf("duplicate stdout: %w", err)
				break
			}
		}

		sc, err := stageContext(base, in, out)
		if err != nil {
			closeFiles(next)
			failure = err
			break
		}
		stages = append(stages, x.launch(ctx, c, sc, base, i < n-1))
	}

	code := 0
	for _, st := range stages {
		code = x.wait(st)
	}
	if failure != nil {
		return failure
	}
	return statusError(code)
}

// stageContext adopts in and out and adds a duplicate of base's stderr.
func stageContext(base *cap.ExecutionContext, in, out *os.File) (*cap.ExecutionContext, error) {
	errf, err := base.Clone(2)
	if err != nil {
		closeFiles(in, out)
		return nil, fmt.Errorf("duplicate stderr: %w", err)
	}
	return cap.Adopt(in, out, errf), nil
}

// launch applies c's redirections to sc and dispatches it. sc is consumed.
// A redirection failure is reported on the shell's stderr and becomes the
// stage's status without dispatching the command.
func (x *Executor) launch(ctx context.Context, c Command, sc *cap.ExecutionContext, base *cap.ExecutionContext, async bool) stage {
	st := stage{name: c.Name()}
	if err := applyRedirections(sc, c.Redirections, x.env.Logger()); err != nil {
		sc.Close()
		x.report(base, err)
		st.code = 1
		return st
	}
	if len(c.Argv) == 0 {
		sc.Close()
		return st
	}

	res := builtin.Execute(ctx, x.env, c.Name(), c.Args(), sc)
	st.child, st.code, st.exit = res.Child, res.Code, res.Exit
	if res.Output != nil {
		st.done = handoff(res.Output, sc, async)
	}
	return st
}

// handoff delivers a builtin's buffered output to the stage's stdout and
// stderr in the order it was written, then closes them. Before the last stage of a pipeline the
// reader may not be running yet, so delivery happens in the background and
// is joined at the wait point.
func handoff(out *cap.Output, sc *cap.ExecutionContext, async bool) <-chan error {
	stdout, stderr := sc.Take(1), sc.Take(2)
	sc.Close()
	done := make(chan error, 1)
	deliver := func() {
		var errs []error
		for _, c := range out.Chunks() {
			f := stdout
			if c.Fd == 2 {
				f = stderr
			}
			if err := writeAll(f, c.Data); err != nil {
				errs = append(errs, err)
			}
		}
		closeFiles(stdout, stderr)
		err := errors.Join(errs...)
		done <- err
	}
	if async {
		go deliver()
	} else {
		deliver()
	}
	return done
}

func writeAll(f *os.File, data []byte) error {
	if f == nil || len(data) == 0 {
		return nil
	}
	_, err := f.Write(data)
	if errors.Is(err, syscall.EPIPE) {
		return nil
	}
	return err
}

// wait is the single point where a stage is reaped.
func (x *Executor) wait(st stage) int {
	log := x.env.Logger()
	switch {
	case st.child != nil:
		code, err := builtin.Wait(st.child)
		if err != nil {
			log.Warn("wait", "name", st.name, "error", err)
		}
		log.Debug("reaped", "name", st.name, "pid", st.child.Process.Pid, "code", code)
		return code
	case st.done != nil:
		if err := <-st.done; err != nil {
			log.Warn("builtin output", "name", st.name, "error", err)
		}
	}
	return st.code
}

func (x *Executor) report(base *cap.ExecutionContext, err error) {
	if f := base.Stderr(); f != nil {
		fmt.Fprintf(f, "ish: %v\n", err)
	}
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}
