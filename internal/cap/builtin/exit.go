package builtin

import (
	"fmt"
	"strconv"

	"github.com/marcelocantos/ish/internal/cap"
)

// exit appends new history entries to the history file and asks the shell
// to terminate. The flush is best-effort and always happens, whatever the
// argument. With no argument the status is 0.
func exit(env *cap.Env, args []string, out *cap.Output) (int, bool) {
	if env.History != nil && env.HistFile != "" {
		if err := env.History.Append(env.HistFile); err != nil {
			fmt.Fprintf(out.Stderr(), "exit: history: %v\n", err)
		}
	}
	if len(args) == 0 {
		return 0, true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out.Stderr(), "exit: %s: numeric argument required\n", args[0])
		return 2, true
	}
	return n & 0xff, true
}
