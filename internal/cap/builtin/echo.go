package builtin

import (
	"io"
	"strings"

	"github.com/marcelocantos/ish/internal/cap"
)

func echo(args []string, out *cap.Output) int {
	io.WriteString(out.Stdout(), strings.Join(args, " ")+"\n")
	return 0
}
