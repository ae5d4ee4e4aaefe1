package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/marcelocantos/ish/internal/cap"
	"github.com/marcelocantos/ish/internal/config"
	"github.com/marcelocantos/ish/internal/history"
	"github.com/marcelocantos/ish/internal/journal"
	"github.com/marcelocantos/ish/internal/pathsearch"
	"github.com/marcelocantos/ish/internal/pipeline"
)

// Shell ties the executor to its configuration, history and journal.
type Shell struct {
	cfg     *config.Config
	env     *cap.Env
	history *history.Store
	exec    *pipeline.Executor
	journal *journal.Logger
	log     *slog.Logger
	errc    *color.Color
	promptc *color.Color
}

// NewShell builds a shell from cfg. Files (history, journal, search path)
// are accessed through fsys.
func NewShell(cfg *config.Config, fsys afero.Fs, log *slog.Logger) *Shell {
	dirs := cfg.Path.Dirs
	if len(dirs) == 0 {
		dirs = pathsearch.Split(os.Getenv("PATH"))
	}
	store := history.New(fsys)
	env := &cap.Env{
		Path:     pathsearch.New(fsys, dirs, cfg.Path.TTL()),
		Home:     cfg.Home,
		History:  store,
		HistFile: cfg.History.File,
		Log:      log,
	}

	sh := &Shell{
		cfg:     cfg,
		env:     env,
		history: store,
		exec:    pipeline.NewExecutor(env),
		log:     env.Logger(),
		errc:    color.New(color.FgRed),
		promptc: color.New(color.FgGreen, color.Bold),
	}
	sh.setColor(colorEnabled(cfg.Color))

	if cfg.Journal.Enabled {
		j, err := journal.NewLogger(fsys, cfg.Journal.Path)
		if err != nil {
			sh.log.Warn("journal disabled", "error", err)
		} else {
			sh.journal = j
		}
	}
	return sh
}

func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
}

func (sh *Shell) setColor(on bool) {
	for _, c := range []*color.Color{sh.errc, sh.promptc} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Env returns the shell's handler environment.
func (sh *Shell) Env() *cap.Env { return sh.env }

// History returns the shell's history store.
func (sh *Shell) History() *history.Store { return sh.history }

// Prompt returns the prompt, coloured if colour is enabled.
func (sh *Shell) Prompt() string {
	return sh.promptc.Sprint(sh.cfg.Prompt)
}

// LoadHistory reads the configured history file. A missing file is not
// an error.
func (sh *Shell) LoadHistory() error {
	if sh.env.HistFile == "" {
		return nil
	}
	if err := sh.history.Load(sh.env.HistFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load history: %w", err)
	}
	return nil
}

// SaveHistory appends new entries to the configured history file.
func (sh *Shell) SaveHistory() error {
	if sh.env.HistFile == "" {
		return nil
	}
	if err := sh.history.Append(sh.env.HistFile); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// RunLine parses and executes one command line with the given stream
// handles, which stay owned by the caller. It returns the line's exit
// status and whether the exit builtin asked the shell to terminate.
func (sh *Shell) RunLine(ctx context.Context, line string, stdin, stdout, stderr *os.File) (code int, exit bool) {
	start := time.Now()
	var stages []string

	err := func() error {
		ct, err := pipeline.ParseLine(line)
		if err != nil {
			sh.log.Info("syntax error", "line", line, "error", err)
			return &syntaxError{err}
		}
		stages = ct.Names()

		base, err := cap.NewExecutionContext(stdin, stdout, stderr)
		if err != nil {
			return err
		}
		defer base.Close()
		return sh.exec.Execute(ctx, ct, base)
	}()

	code, exit, errMsg := sh.resolveError(err, stderr)
	sh.logJournal(line, stages, code, errMsg, time.Since(start))
	return code, exit
}

type syntaxError struct{ err error }

func (e *syntaxError) Error() string { return e.err.Error() }
func (e *syntaxError) Unwrap() error { return e.err }

// resolveError extracts an exit code from an error. For ExitError the
// code is propagated silently; the command's own stderr is sufficient.
// Syntax errors exit 2; other errors are reported on stderr and exit 1.
func (sh *Shell) resolveError(err error, stderr *os.File) (code int, exit bool, errMsg string) {
	if err == nil {
		return 0, false, ""
	}
	var exitErr *pipeline.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, false, ""
	}
	var req *pipeline.ExitRequest
	if errors.As(err, &req) {
		return req.Code, true, ""
	}
	code = 1
	var syn *syntaxError
	if errors.As(err, &syn) {
		code = 2
	}
	if stderr != nil {
		sh.errc.Fprintf(stderr, "ish: %v\n", err)
	}
	return code, false, err.Error()
}

func (sh *Shell) logJournal(line string, stages []string, code int, errMsg string, d time.Duration) {
	if sh.journal == nil {
		return
	}
	cwd, _ := os.Getwd()
	// Best-effort: a journal failure never fails the command.
	if err := sh.journal.Log(journal.Record{
		Line:     line,
		Stages:   stages,
		ExitCode: code,
		Error:    errMsg,
		Duration: d,
		Cwd:      cwd,
	}); err != nil {
		sh.log.Warn("journal", "error", err)
	}
}
