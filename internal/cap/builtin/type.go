package builtin

import (
	"fmt"
	"io"

	"github.com/marcelocantos/ish/internal/cap"
)

// typeCmd reports how each name would be interpreted.
func typeCmd(env *cap.Env, args []string, out *cap.Output) int {
	if len(args) == 0 {
		io.WriteString(out.Stderr(), "type: missing operand\n")
		return 1
	}
	code := 0
	for _, name := range args {
		if cap.Classify(name).IsBuiltin() {
			fmt.Fprintf(out.Stdout(), "%s is a shell builtin\n", name)
			continue
		}
		if full, ok := env.Path.Lookup(name); ok {
			fmt.Fprintf(out.Stdout(), "%s is %s\n", name, full)
			continue
		}
		fmt.Fprintf(out.Stderr(), "%s: not found\n", name)
		code = 1
	}
	return code
}
