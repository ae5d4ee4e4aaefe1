package cli

import (
	"slices"
	"strings"
	"unicode"

	"github.com/marcelocantos/ish/internal/cap"
)

// completer offers builtin and executable names for the command word.
// Arguments are not completed.
type completer struct {
	path cap.SearchPath
}

func newCompleter(path cap.SearchPath) *completer {
	return &completer{path: path}
}

func (c *completer) candidates() []string {
	names := cap.BuiltinNames()
	if c.path != nil {
		names = append(names, c.path.Executables()...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Do implements readline.AutoCompleter. It returns the suffixes that
// extend the word before pos, and the length of that word.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	head := string(line[:pos])
	word := strings.TrimLeftFunc(head, unicode.IsSpace)
	if strings.ContainsFunc(word, unicode.IsSpace) {
		return nil, 0
	}

	var matches []string
	for _, name := range c.candidates() {
		if strings.HasPrefix(name, word) {
			matches = append(matches, name[len(word):])
		}
	}
	if len(matches) == 1 {
		matches[0] += " "
	}

	out := make([][]rune, len(matches))
	for i, m := range matches {
		out[i] = []rune(m)
	}
	return out, len([]rune(word))
}
