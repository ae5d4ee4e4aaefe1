package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrInterrupt is returned by a LineSource when the user abandons the
// current line.
var ErrInterrupt = errors.New("interrupt")

// LineSource supplies command lines to the REPL. ReadLine returns io.EOF
// at end of input.
type LineSource interface {
	ReadLine() (string, error)
	Close() error
}

// OpenLineSource loads the history file and then builds the line source,
// so the loaded entries are available for recall from the first prompt.
// A history file that cannot be read is reported and otherwise ignored.
func (sh *Shell) OpenLineSource(stdin, stdout, stderr *os.File) (LineSource, error) {
	if err := sh.LoadHistory(); err != nil {
		sh.errc.Fprintf(stderr, "ish: %v\n", err)
	}
	return sh.NewLineSource(stdin, stdout, stderr)
}

// NewLineSource returns a readline-backed source with completion when
// stdin is a terminal, and a plain line reader otherwise. The readline
// source is seeded with the current history entries.
func (sh *Shell) NewLineSource(stdin, stdout, stderr *os.File) (LineSource, error) {
	if term.IsTerminal(int(stdin.Fd())) {
		return sh.newReadlineSource(stdin, stdout, stderr)
	}
	return newPlainSource(stdin, stdout, sh.Prompt()), nil
}

type readlineSource struct {
	rl *readline.Instance
}

func (sh *Shell) newReadlineSource(stdin, stdout, stderr *os.File) (*readlineSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sh.Prompt(),
		AutoComplete:    newCompleter(sh.env.Path),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}
	seedHistory(rl, sh.history.Entries())
	return &readlineSource{rl: rl}, nil
}

type historySaver interface {
	SaveHistory(content string) error
}

// seedHistory makes entries available to the line editor's recall.
func seedHistory(h historySaver, entries []string) {
	for _, line := range entries {
		h.SaveHistory(line)
	}
}

func (s *readlineSource) ReadLine() (string, error) {
	line, err := s.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupt
	}
	return line, err
}

func (s *readlineSource) Close() error { return s.rl.Close() }

type plainSource struct {
	sc     *bufio.Scanner
	out    io.Writer
	prompt string
}

func newPlainSource(in io.Reader, out io.Writer, prompt string) *plainSource {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &plainSource{sc: sc, out: out, prompt: prompt}
}

func (s *plainSource) ReadLine() (string, error) {
	fmt.Fprint(s.out, s.prompt)
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (s *plainSource) Close() error { return nil }

// Repl reads lines from src until end of input or the exit builtin runs.
// Every non-empty line is added to history before it is executed. End of
// input saves history and yields 0; exit yields its own status.
func (sh *Shell) Repl(ctx context.Context, src LineSource, stdin, stdout, stderr *os.File) int {
	defer src.Close()
	for {
		line, err := src.ReadLine()
		switch {
		case errors.Is(err, ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			if err := sh.SaveHistory(); err != nil {
				sh.errc.Fprintf(stderr, "ish: %v\n", err)
			}
			return 0
		case err != nil:
			sh.errc.Fprintf(stderr, "ish: %v\n", err)
			return 1
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sh.history.Add(line)

		if code, exit := sh.RunLine(ctx, line, stdin, stdout, stderr); exit {
			return code
		}
	}
}
