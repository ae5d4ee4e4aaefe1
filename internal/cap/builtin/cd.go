package builtin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcelocantos/ish/internal/cap"
)

func cd(env *cap.Env, args []string, out *cap.Output) int {
	switch {
	case len(args) == 0:
		io.WriteString(out.Stderr(), "cd: missing operand\n")
		return 1
	case len(args) > 1:
		io.WriteString(out.Stderr(), "cd: too many arguments\n")
		return 1
	}

	dir := expandHome(args[0], env.Home)
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(out.Stderr(), "cd: %s: No such file or directory\n", dir)
		return 1
	}
	if wd, err := os.Getwd(); err == nil {
		os.Setenv("PWD", wd)
	}
	return 0
}

// expandHome replaces a leading ~ or ~/ with home.
func expandHome(dir, home string) string {
	if home == "" {
		return dir
	}
	if dir == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return dir
}
