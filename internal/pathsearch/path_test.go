package pathsearch

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/usr/local/bin/tool", []byte("#!"), 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/tool", []byte("#!"), 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/ls", []byte("#!"), 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/usr/bin/readme", []byte("text"), 0o644))
	require.NoError(t, fsys.MkdirAll("/usr/bin/subdir", 0o755))
	return fsys
}

func TestLookupFirstMatchWins(t *testing.T) {
	p := New(newFs(t), []string{"/usr/local/bin", "/usr/bin"}, 0)

	full, ok := p.Lookup("tool")
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/tool", full)

	full, ok = p.Lookup("ls")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/ls", full)
}

func TestLookupRejectsNonExecutables(t *testing.T) {
	p := New(newFs(t), []string{"/usr/bin"}, 0)
	for _, name := range []string{"readme", "subdir", "missing", ""} {
		_, ok := p.Lookup(name)
		assert.False(t, ok, name)
	}
}

func TestLookupWithSlash(t *testing.T) {
	p := New(newFs(t), nil, 0)
	full, ok := p.Lookup("/usr/bin/ls")
	assert.True(t, ok)
	assert.Equal(t, "/usr/bin/ls", full)
	_, ok = p.Lookup("/usr/bin/readme")
	assert.False(t, ok)
}

func TestLookupHashRevalidates(t *testing.T) {
	fsys := newFs(t)
	p := New(fsys, []string{"/usr/local/bin", "/usr/bin"}, time.Hour)

	full, ok := p.Lookup("tool")
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/tool", full)

	require.NoError(t, fsys.Remove("/usr/local/bin/tool"))
	full, ok = p.Lookup("tool")
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/tool", full)
}

func TestExecutables(t *testing.T) {
	p := New(newFs(t), []string{"/usr/local/bin", "/usr/bin", "/nonexistent"}, 0)
	assert.Equal(t, []string{"ls", "tool"}, p.Executables())
}

func TestSplit(t *testing.T) {
	assert.Nil(t, Split(""))
	assert.Equal(t, []string{"/bin", ".", "/usr/bin"}, Split("/bin::/usr/bin"))
}

func TestDirsIsACopy(t *testing.T) {
	p := New(afero.NewMemMapFs(), []string{"/a", "/b"}, 0)
	dirs := p.Dirs()
	dirs[0] = "/x"
	assert.Equal(t, []string{"/a", "/b"}, p.Dirs())
}
