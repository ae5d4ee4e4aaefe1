package journal

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// File is a journal read back from disk, one decoded line per entry.
type File struct {
	lines []line
}

type line struct {
	n     int // 1-based line number
	entry Entry
	err   error // decode failure
}

// Read loads and decodes the journal at path. Lines that fail to decode
// are kept so Verify can report them; Tail and Last skip them.
func Read(fsys afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	raw := splitLines(data)
	f := &File{lines: make([]line, len(raw))}
	for i, b := range raw {
		f.lines[i].n = i + 1
		f.lines[i].err = json.Unmarshal(b, &f.lines[i].entry)
	}
	return f, nil
}

// Len returns the number of lines in the journal.
func (f *File) Len() int { return len(f.lines) }

// Last returns the final entry, if the journal has one and it decodes.
func (f *File) Last() (Entry, bool) {
	if len(f.lines) == 0 {
		return Entry{}, false
	}
	l := f.lines[len(f.lines)-1]
	return l.entry, l.err == nil
}

// Verify walks the hash chain from the genesis hash and reports the first
// line that breaks it.
func (f *File) Verify() error {
	prev := genesisHash()
	var seq uint64
	for _, l := range f.lines {
		if l.err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", l.n, l.err)
		}
		e := l.entry
		switch {
		case e.Seq != seq+1:
			return fmt.Errorf("line %d: sequence gap: expected %d, got %d", l.n, seq+1, e.Seq)
		case e.PrevHash != prev:
			return fmt.Errorf("line %d: prev_hash mismatch: expected %s, got %s", l.n, short(prev), short(e.PrevHash))
		}
		if sum := computeHash(e); e.Hash != sum {
			return fmt.Errorf("line %d: hash mismatch: expected %s, got %s", l.n, short(sum), short(e.Hash))
		}
		prev, seq = e.Hash, e.Seq
	}
	return nil
}

// Tail returns the decodable entries among the last n lines.
func (f *File) Tail(n int) []Entry {
	n = max(0, min(n, len(f.lines)))
	entries := make([]Entry, 0, n)
	for _, l := range f.lines[len(f.lines)-n:] {
		if l.err == nil {
			entries = append(entries, l.entry)
		}
	}
	return entries
}

// Verify reads the journal at path and checks its hash chain.
func Verify(fsys afero.Fs, path string) error {
	f, err := Read(fsys, path)
	if err != nil {
		return err
	}
	return f.Verify()
}

// Tail reads the journal at path and returns its last n entries.
func Tail(fsys afero.Fs, path string, n int) ([]Entry, error) {
	f, err := Read(fsys, path)
	if err != nil {
		return nil, err
	}
	return f.Tail(n), nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}
