package builtin

import (
	"fmt"
	"os"

	"github.com/marcelocantos/ish/internal/cap"
)

// pwd prints the working directory. If it cannot be determined (for
// instance after it was removed) nothing is printed and pwd still succeeds.
func pwd(env *cap.Env, out *cap.Output) int {
	dir, err := os.Getwd()
	if err != nil {
		env.Logger().Debug("pwd", "error", err)
		return 0
	}
	fmt.Fprintln(out.Stdout(), dir)
	return 0
}
