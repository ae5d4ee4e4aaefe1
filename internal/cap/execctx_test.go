package cap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFile(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestClassifyAllNames(t *testing.T) {
	for _, name := range []string{"exit", "pwd", "cd", "echo", "type", "history"} {
		k := Classify(name)
		assert.True(t, k.IsBuiltin(), name)
		assert.Equal(t, name, k.String())
	}
	for _, name := range []string{"ls", "Echo", "CD", "", "historyx"} {
		assert.Equal(t, External, Classify(name), name)
		assert.False(t, Classify(name).IsBuiltin())
	}
	assert.Equal(t, []string{"exit", "pwd", "cd", "echo", "type", "history"}, BuiltinNames())
}

func TestNewExecutionContextOwnsDuplicates(t *testing.T) {
	out := tempFile(t, "out")
	ec, err := NewExecutionContext(nil, out, out)
	require.NoError(t, err)
	assert.Nil(t, ec.Stdin())
	require.NotNil(t, ec.Stdout())
	assert.NotEqual(t, out.Fd(), ec.Stdout().Fd())

	_, err = io.WriteString(ec.Stdout(), "one\n")
	require.NoError(t, err)
	require.NoError(t, ec.Close())

	// The original handle is still usable after the context is closed.
	_, err = io.WriteString(out, "two\n")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", readAll(t, out.Name()))
}

func TestAliasCapturesCurrentHandle(t *testing.T) {
	a := tempFile(t, "a")
	b := tempFile(t, "b")
	ec, err := NewExecutionContext(nil, a, nil)
	require.NoError(t, err)
	defer ec.Close()

	require.NoError(t, ec.Alias(2, 1))
	nb, err := os.OpenFile(b.Name(), os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	require.NoError(t, ec.Replace(1, nb))

	_, err = io.WriteString(ec.Stderr(), "err\n")
	require.NoError(t, err)
	_, err = io.WriteString(ec.Stdout(), "out\n")
	require.NoError(t, err)

	assert.Equal(t, "err\n", readAll(t, a.Name()))
	assert.Equal(t, "out\n", readAll(t, b.Name()))
}

func TestBadDescriptors(t *testing.T) {
	ec := Adopt(nil, nil, nil)
	var bad BadFdError
	require.ErrorAs(t, ec.Replace(3, nil), &bad)
	assert.Equal(t, BadFdError(3), bad)
	require.ErrorAs(t, ec.Alias(2, 5), &bad)
	assert.EqualError(t, ec.Alias(2, 1), "1: bad file descriptor")
	assert.Nil(t, ec.File(7))
	assert.Nil(t, ec.Take(-1))
}

func TestTakeAndClone(t *testing.T) {
	out := tempFile(t, "out")
	ec, err := NewExecutionContext(nil, out, nil)
	require.NoError(t, err)

	c, err := ec.Clone(1)
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()

	taken := ec.Take(1)
	require.NotNil(t, taken)
	assert.Nil(t, ec.Stdout())
	require.NoError(t, taken.Close())

	_, err = io.WriteString(c, "still open\n")
	require.NoError(t, err)
	assert.Equal(t, "still open\n", readAll(t, out.Name()))

	none, err := ec.Clone(0)
	require.NoError(t, err)
	assert.Nil(t, none)
	require.NoError(t, ec.Close())
}

func TestCloseFd(t *testing.T) {
	out := tempFile(t, "out")
	ec, err := NewExecutionContext(nil, out, out)
	require.NoError(t, err)
	require.NoError(t, ec.CloseFd(2))
	assert.Nil(t, ec.Stderr())
	assert.NotNil(t, ec.Stdout())
	require.NoError(t, ec.Close())
}
