package builtin

import (
	"fmt"
	"io"
	"strconv"

	"github.com/marcelocantos/ish/internal/cap"
)

// history lists entries, or with -r, -w or -a reads, overwrites or appends
// the given history file.
func history(env *cap.Env, args []string, out *cap.Output) int {
	if env.History == nil {
		io.WriteString(out.Stderr(), "history: no history available\n")
		return 1
	}
	entries := env.History.Entries()
	if len(args) == 0 {
		list(out, entries, 0)
		return 0
	}

	var sync func(string) error
	switch args[0] {
	case "-r":
		sync = env.History.Load
	case "-w":
		sync = env.History.Overwrite
	case "-a":
		sync = env.History.Append
	}
	if sync != nil {
		if len(args) < 2 {
			fmt.Fprintf(out.Stderr(), "history: %s: missing operand\n", args[0])
			return 1
		}
		if err := sync(args[1]); err != nil {
			fmt.Fprintf(out.Stderr(), "history: %v\n", err)
			return 1
		}
		return 0
	}

	n, err := strconv.ParseUint(args[0], 10, 0)
	if err != nil {
		fmt.Fprintf(out.Stderr(), "history: %s: event not found\n", args[0])
		return 1
	}
	skip := 0
	if n < uint64(len(entries)) {
		skip = len(entries) - int(n)
	}
	list(out, entries, skip)
	return 0
}

// list prints entries from index skip on, numbered from 1 by their
// position in the full history.
func list(out *cap.Output, entries []string, skip int) {
	for i := skip; i < len(entries); i++ {
		fmt.Fprintf(out.Stdout(), "    %d  %s\n", i+1, entries[i])
	}
}
