package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/ish/internal/cap"
	histstore "github.com/marcelocantos/ish/internal/history"
	"github.com/marcelocantos/ish/internal/pathsearch"
)

func memEnv(t *testing.T) (*cap.Env, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/ls", []byte("#!"), 0o755))
	return &cap.Env{
		Path:    pathsearch.New(fsys, []string{"/usr/bin"}, 0),
		Home:    "/home/user",
		History: histstore.New(fsys),
	}, fsys
}

func run(t *testing.T, env *cap.Env, name string, args ...string) cap.Result {
	t.Helper()
	res := Execute(context.Background(), env, name, args, cap.Adopt(nil, nil, nil))
	require.Nil(t, res.Child)
	require.NotNil(t, res.Output)
	return res
}

func TestEcho(t *testing.T) {
	env, _ := memEnv(t)
	res := run(t, env, "echo", "hello", "world")
	assert.Equal(t, 0, res.Code)
	assert.Equal(t, "hello world\n", res.Output.Text(1))

	res = run(t, env, "echo")
	assert.Equal(t, "\n", res.Output.Text(1))
}

func TestType(t *testing.T) {
	env, _ := memEnv(t)
	tests := []struct {
		args   []string
		code   int
		stdout string
		stderr string
	}{
		{[]string{"echo"}, 0, "echo is a shell builtin\n", ""},
		{[]string{"history"}, 0, "history is a shell builtin\n", ""},
		{[]string{"ls"}, 0, "ls is /usr/bin/ls\n", ""},
		{[]string{"nope"}, 1, "", "nope: not found\n"},
		{[]string{"cd", "nope", "ls"}, 1, "cd is a shell builtin\nls is /usr/bin/ls\n", "nope: not found\n"},
		{nil, 1, "", "type: missing operand\n"},
	}
	for _, tt := range tests {
		res := run(t, env, "type", tt.args...)
		assert.Equal(t, tt.code, res.Code, "%v", tt.args)
		assert.Equal(t, tt.stdout, res.Output.Text(1))
		assert.Equal(t, tt.stderr, res.Output.Text(2))
	}
}

func TestCd(t *testing.T) {
	env, _ := memEnv(t)
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Chdir(base)
	t.Setenv("PWD", base)
	require.NoError(t, os.Mkdir(filepath.Join(base, "sub"), 0o755))
	env.Home = base

	res := run(t, env, "cd", "sub")
	assert.Equal(t, 0, res.Code)
	wd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(base, "sub"), wd)
	assert.Equal(t, wd, os.Getenv("PWD"))

	res = run(t, env, "cd", "~")
	assert.Equal(t, 0, res.Code)
	wd, _ = os.Getwd()
	assert.Equal(t, base, wd)

	res = run(t, env, "cd", "~/sub")
	assert.Equal(t, 0, res.Code)
	wd, _ = os.Getwd()
	assert.Equal(t, filepath.Join(base, "sub"), wd)

	res = run(t, env, "pwd")
	assert.Equal(t, filepath.Join(base, "sub")+"\n", res.Output.Text(1))
}

func TestCdErrors(t *testing.T) {
	env, _ := memEnv(t)
	t.Chdir(t.TempDir())
	before, err := os.Getwd()
	require.NoError(t, err)

	res := run(t, env, "cd")
	assert.Equal(t, 1, res.Code)
	assert.Equal(t, "cd: missing operand\n", res.Output.Text(2))
	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	res = run(t, env, "cd", "a", "b")
	assert.Equal(t, 1, res.Code)
	assert.Equal(t, "cd: too many arguments\n", res.Output.Text(2))

	res = run(t, env, "cd", "/does/not/exist")
	assert.Equal(t, 1, res.Code)
	assert.Equal(t, "cd: /does/not/exist: No such file or directory\n", res.Output.Text(2))

	after, err = os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPwdInRemovedDirectory(t *testing.T) {
	env, _ := memEnv(t)
	gone := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(gone, 0o755))
	t.Chdir(gone)
	require.NoError(t, os.Remove(gone))

	res := run(t, env, "pwd")
	assert.Equal(t, 0, res.Code)
	assert.Empty(t, res.Output.Text(1))
	assert.Empty(t, res.Output.Text(2))
}

func TestHistoryListing(t *testing.T) {
	env, _ := memEnv(t)
	store := env.History.(*histstore.Store)
	for _, line := range []string{"echo a", "ls", "pwd", "history 2"} {
		store.Add(line)
	}

	res := run(t, env, "history")
	assert.Equal(t, "    1  echo a\n    2  ls\n    3  pwd\n    4  history 2\n", res.Output.Text(1))

	res = run(t, env, "history", "2")
	assert.Equal(t, "    3  pwd\n    4  history 2\n", res.Output.Text(1))

	res = run(t, env, "history", "10")
	assert.Equal(t, 4, len(splitNonEmpty(res.Output.Text(1))))

	res = run(t, env, "history", "0")
	assert.Equal(t, "", res.Output.Text(1))

	res = run(t, env, "history", "abc")
	assert.Equal(t, 1, res.Code)
	assert.Equal(t, "history: abc: event not found\n", res.Output.Text(2))
}

func TestHistoryFileOperations(t *testing.T) {
	env, fsys := memEnv(t)
	store := env.History.(*histstore.Store)
	require.NoError(t, afero.WriteFile(fsys, "/h", []byte("from file\n"), 0o600))

	res := run(t, env, "history", "-r", "/h")
	assert.Equal(t, 0, res.Code)
	assert.Equal(t, []string{"from file"}, store.Entries())

	store.Add("typed")
	res = run(t, env, "history", "-a", "/h")
	assert.Equal(t, 0, res.Code)
	data, _ := afero.ReadFile(fsys, "/h")
	assert.Equal(t, "from file\ntyped\n", string(data))

	res = run(t, env, "history", "-w", "/w")
	assert.Equal(t, 0, res.Code)
	data, _ = afero.ReadFile(fsys, "/w")
	assert.Equal(t, "from file\ntyped\n", string(data))

	for _, flag := range []string{"-r", "-w", "-a"} {
		res = run(t, env, "history", flag)
		assert.Equal(t, 1, res.Code)
		assert.Equal(t, "history: "+flag+": missing operand\n", res.Output.Text(2))
	}

	res = run(t, env, "history", "-r", "/missing")
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Output.Text(2), "history: ")
}

func TestExit(t *testing.T) {
	env, fsys := memEnv(t)
	env.HistFile = "/hist"
	store := env.History.(*histstore.Store)
	store.Add("echo a")
	store.Add("exit")

	res := run(t, env, "exit")
	assert.True(t, res.Exit)
	assert.Equal(t, 0, res.Code)
	data, err := afero.ReadFile(fsys, "/hist")
	require.NoError(t, err)
	assert.Equal(t, "echo a\nexit\n", string(data))

	res = run(t, env, "exit", "3")
	assert.True(t, res.Exit)
	assert.Equal(t, 3, res.Code)

	res = run(t, env, "exit", "x")
	assert.True(t, res.Exit)
	assert.Equal(t, 2, res.Code)
	assert.Equal(t, "exit: x: numeric argument required\n", res.Output.Text(2))
}

func TestExitFlushesHistoryWhateverTheArgument(t *testing.T) {
	for _, args := range [][]string{nil, {"7"}, {"x"}} {
		env, fsys := memEnv(t)
		env.HistFile = "/hist"
		env.History.(*histstore.Store).Add("echo a")

		res := run(t, env, "exit", args...)
		assert.True(t, res.Exit, "%v", args)
		data, err := afero.ReadFile(fsys, "/hist")
		require.NoError(t, err, "%v", args)
		assert.Equal(t, "echo a\n", string(data), "%v", args)
	}
}

func TestExitFlushFailureStillExits(t *testing.T) {
	env, fsys := memEnv(t)
	env.HistFile = "/hist"
	store := histstore.New(afero.NewReadOnlyFs(fsys))
	store.Add("echo a")
	env.History = store

	res := run(t, env, "exit")
	assert.True(t, res.Exit)
	assert.Equal(t, 0, res.Code)
	assert.Contains(t, res.Output.Text(2), "exit: history: ")
}

func TestExternal(t *testing.T) {
	env := &cap.Env{Path: pathsearch.New(afero.NewOsFs(), pathsearch.Split(os.Getenv("PATH")), 0)}
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "out"))
	require.NoError(t, err)
	errf, err := os.Create(filepath.Join(dir, "err"))
	require.NoError(t, err)

	ec := cap.Adopt(nil, out, errf)
	res := Execute(context.Background(), env, "sh", []string{"-c", "printf hi; printf oops >&2; exit 3"}, ec)
	require.NotNil(t, res.Child)
	assert.Nil(t, ec.Stdout(), "parent copies must be released after spawn")

	code, err := Wait(res.Child)
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	data, _ := os.ReadFile(filepath.Join(dir, "out"))
	assert.Equal(t, "hi", string(data))
	data, _ = os.ReadFile(filepath.Join(dir, "err"))
	assert.Equal(t, "oops", string(data))
}

func TestExternalSignalStatus(t *testing.T) {
	env := &cap.Env{Path: pathsearch.New(afero.NewOsFs(), pathsearch.Split(os.Getenv("PATH")), 0)}
	res := Execute(context.Background(), env, "sh", []string{"-c", "kill -TERM $$"}, cap.Adopt(nil, nil, nil))
	require.NotNil(t, res.Child)
	code, err := Wait(res.Child)
	require.NoError(t, err)
	assert.Equal(t, 128+15, code)
}

func TestExternalNotFound(t *testing.T) {
	env, _ := memEnv(t)
	errPath := filepath.Join(t.TempDir(), "err")
	errf, err := os.Create(errPath)
	require.NoError(t, err)

	res := Execute(context.Background(), env, "nosuchcmd", nil, cap.Adopt(nil, nil, errf))
	assert.Nil(t, res.Child)
	assert.Equal(t, 1, res.Code)
	data, _ := os.ReadFile(errPath)
	assert.Equal(t, "nosuchcmd: command not found\n", string(data))
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
