package cap

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
)

// Kind names the handler a command word dispatches to. Every builtin has
// its own Kind; anything else is External.
type Kind int

const (
	External Kind = iota
	Exit
	Pwd
	Cd
	Echo
	Type
	History
)

var builtinKinds = []Kind{Exit, Pwd, Cd, Echo, Type, History}

func (k Kind) String() string {
	switch k {
	case External:
		return "external"
	case Exit:
		return "exit"
	case Pwd:
		return "pwd"
	case Cd:
		return "cd"
	case Echo:
		return "echo"
	case Type:
		return "type"
	case History:
		return "history"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsBuiltin reports whether k runs in-process.
func (k Kind) IsBuiltin() bool {
	return k > External && k <= History
}

// Classify maps a command word to its Kind by exact, case-sensitive match
// against the builtin names.
func Classify(name string) Kind {
	for _, k := range builtinKinds {
		if k.String() == name {
			return k
		}
	}
	return External
}

// BuiltinNames returns the builtin command words in declaration order.
func BuiltinNames() []string {
	names := make([]string, len(builtinKinds))
	for i, k := range builtinKinds {
		names[i] = k.String()
	}
	return names
}

// SearchPath resolves command names against the ordered executable search
// directories.
type SearchPath interface {
	// Lookup returns the full path of the first executable named name.
	Lookup(name string) (string, bool)

	// Executables returns the sorted, de-duplicated names of every
	// executable on the path.
	Executables() []string
}

// HistoryStore holds the session's command history.
type HistoryStore interface {
	Entries() []string
	Load(path string) error
	Append(path string) error
	Overwrite(path string) error
}

// Env is the process-wide configuration handed to every handler. It is
// built once at startup and not mutated afterwards.
type Env struct {
	Path     SearchPath
	Home     string
	History  HistoryStore
	HistFile string
	Log      *slog.Logger
}

// Logger returns e.Log, or a logger that discards everything.
func (e *Env) Logger() *slog.Logger {
	if e.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Log
}

// Output is what a builtin produced, held in memory until the executor
// hands it off to the stage's stream handles. Writes are kept in the order
// they were made, so stdout and stderr interleave as written when both
// reach the same file.
type Output struct {
	chunks []Chunk
}

// Chunk is a run of consecutive writes to one descriptor.
type Chunk struct {
	Fd   int
	Data []byte
}

// Stdout returns a writer appending to descriptor 1.
func (o *Output) Stdout() io.Writer { return outputWriter{o, 1} }

// Stderr returns a writer appending to descriptor 2.
func (o *Output) Stderr() io.Writer { return outputWriter{o, 2} }

// Chunks returns the recorded writes in order.
func (o *Output) Chunks() []Chunk { return o.chunks }

// Text returns everything written to fd.
func (o *Output) Text(fd int) string {
	var b strings.Builder
	for _, c := range o.chunks {
		if c.Fd == fd {
			b.Write(c.Data)
		}
	}
	return b.String()
}

func (o *Output) write(fd int, p []byte) {
	if n := len(o.chunks); n > 0 && o.chunks[n-1].Fd == fd {
		o.chunks[n-1].Data = append(o.chunks[n-1].Data, p...)
		return
	}
	o.chunks = append(o.chunks, Chunk{Fd: fd, Data: slices.Clone(p)})
}

type outputWriter struct {
	o  *Output
	fd int
}

func (w outputWriter) Write(p []byte) (int, error) {
	w.o.write(w.fd, p)
	return len(p), nil
}

// Result is what a handler returns. External handlers return a started,
// un-waited Child; builtins return their buffered Output. Code is final
// for builtins and for externals that failed to start. Exit asks the shell
// to terminate with Code once the output has been delivered.
type Result struct {
	Code   int
	Child  *exec.Cmd
	Output *Output
	Exit   bool
}
