// Package history keeps the session's command history and syncs it with a
// history file.
package history

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Store is an in-memory, ordered list of command lines. It remembers how
// many entries have already been written out so Append only writes new
// ones.
type Store struct {
	mu      sync.Mutex
	fs      afero.Fs
	entries []string
	flushed int
}

// New returns an empty store reading and writing files through fsys.
func New(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// Add records a line.
func (s *Store) Add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, line)
}

// Entries returns a copy of all entries in order.
func (s *Store) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Load appends the lines of path to the store. Everything loaded counts as
// already written.
func (s *Store) Load(path string) error {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			s.entries = append(s.entries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	s.flushed = len(s.entries)
	return nil
}

// Append writes the entries added since the last Load, Append or Overwrite
// to the end of path, creating it if needed.
func (s *Store) Append(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	if err := s.write(f, s.entries[s.flushed:]); err != nil {
		return err
	}
	s.flushed = len(s.entries)
	return nil
}

// Overwrite replaces path with every entry in the store.
func (s *Store) Overwrite(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := s.write(f, s.entries); err != nil {
		return err
	}
	s.flushed = len(s.entries)
	return nil
}

func (s *Store) write(f afero.File, lines []string) error {
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	return f.Close()
}
