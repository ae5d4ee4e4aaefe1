package cap

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, Cd, Classify("cd"))
	assert.Equal(t, External, Classify("CD"))
	assert.Equal(t, External, Classify("ls"))
	assert.True(t, Classify("history").IsBuiltin())
	assert.Equal(t, []string{"exit", "pwd", "cd", "echo", "type", "history"}, BuiltinNames())
}

func TestOutputKeepsWriteOrder(t *testing.T) {
	var out Output
	fmt.Fprint(out.Stdout(), "a")
	fmt.Fprint(out.Stdout(), "b")
	io.WriteString(out.Stderr(), "oops\n")
	fmt.Fprint(out.Stdout(), "c\n")

	assert.Equal(t, []Chunk{
		{Fd: 1, Data: []byte("ab")},
		{Fd: 2, Data: []byte("oops\n")},
		{Fd: 1, Data: []byte("c\n")},
	}, out.Chunks())
	assert.Equal(t, "abc\n", out.Text(1))
	assert.Equal(t, "oops\n", out.Text(2))
}

func TestOutputCopiesWrites(t *testing.T) {
	var out Output
	buf := []byte("x")
	out.Stdout().Write(buf)
	buf[0] = 'y'
	assert.Equal(t, "x", out.Text(1))
}
