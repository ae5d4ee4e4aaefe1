// Package pathsearch resolves command names against the executable search
// path.
package pathsearch

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/afero"
)

// Path is an ordered, immutable list of search directories. Successful
// lookups are remembered for the configured TTL, like a shell's command
// hash table.
type Path struct {
	fs    afero.Fs
	dirs  []string
	cache *ttlcache.Cache[string, string]
}

// New returns a Path over dirs. A zero ttl disables the hash table.
func New(fsys afero.Fs, dirs []string, ttl time.Duration) *Path {
	p := &Path{fs: fsys, dirs: slices.Clone(dirs)}
	if ttl > 0 {
		p.cache = ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](ttl),
			ttlcache.WithDisableTouchOnHit[string, string](),
		)
	}
	return p
}

// Split splits a PATH-style list. An empty element means the current
// directory.
func Split(list string) []string {
	if list == "" {
		return nil
	}
	dirs := filepath.SplitList(list)
	for i, d := range dirs {
		if d == "" {
			dirs[i] = "."
		}
	}
	return dirs
}

// Dirs returns the search directories in order.
func (p *Path) Dirs() []string {
	return slices.Clone(p.dirs)
}

// Lookup returns the first executable named name. Names containing a slash
// are checked as given.
func (p *Path) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.Contains(name, "/") {
		return name, p.executable(name)
	}
	if p.cache != nil {
		if item := p.cache.Get(name); item != nil {
			if full := item.Value(); p.executable(full) {
				return full, true
			}
			p.cache.Delete(name)
		}
	}
	for _, dir := range p.dirs {
		full := filepath.Join(dir, name)
		if !strings.Contains(full, "/") {
			full = "./" + full
		}
		if p.executable(full) {
			if p.cache != nil {
				p.cache.Set(name, full, ttlcache.DefaultTTL)
			}
			return full, true
		}
	}
	return "", false
}

// Executables lists every executable name across all directories, sorted
// and de-duplicated. Unreadable directories are skipped.
func (p *Path) Executables() []string {
	var names []string
	for _, dir := range p.dirs {
		entries, err := afero.ReadDir(p.fs, dir)
		if err != nil {
			continue
		}
		for _, fi := range entries {
			if isExecutable(fi) || (fi.Mode()&fs.ModeSymlink != 0 && p.executable(filepath.Join(dir, fi.Name()))) {
				names = append(names, fi.Name())
			}
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (p *Path) executable(path string) bool {
	fi, err := p.fs.Stat(path)
	if err != nil {
		return false
	}
	return isExecutable(fi)
}

func isExecutable(fi fs.FileInfo) bool {
	return fi.Mode().IsRegular() && fi.Mode().Perm()&0o111 != 0
}
