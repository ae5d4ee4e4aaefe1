// Package journal keeps an append-only, hash-chained record of the command
// lines a shell has run.
package journal

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/afero"
)

const genesisInput = "ish-genesis"

// Logger appends entries to a journal file.
type Logger struct {
	mu       sync.Mutex
	fs       afero.Fs
	path     string
	session  string
	seq      uint64
	prevHash string
}

// NewLogger opens or creates a journal at path and starts a new session.
// It reads the last entry to resume the hash chain.
func NewLogger(fsys afero.Fs, path string) (*Logger, error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	l := &Logger{
		fs:       fsys,
		path:     path,
		session:  id.String(),
		prevHash: genesisHash(),
	}

	if f, err := Read(fsys, path); err == nil {
		if last, ok := f.Last(); ok {
			l.seq = last.Seq
			l.prevHash = last.Hash
		}
	}

	return l, nil
}

// Log appends one entry for rec.
func (l *Logger) Log(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Seq:      l.seq + 1,
		Time:     time.Now().UTC(),
		PrevHash: l.prevHash,
		Session:  l.session,
		Line:     rec.Line,
		Stages:   rec.Stages,
		ExitCode: rec.ExitCode,
		Error:    rec.Error,
		Duration: float64(rec.Duration.Microseconds()) / 1000.0,
		Cwd:      rec.Cwd,
	}
	entry.Hash = computeHash(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}
	data = append(data, '\n')

	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	l.seq = entry.Seq
	l.prevHash = entry.Hash
	return nil
}

// Path returns the journal file path.
func (l *Logger) Path() string {
	return l.path
}

// Session returns this logger's session id.
func (l *Logger) Session() string {
	return l.session
}

func genesisHash() string {
	h := sha256.Sum256([]byte(genesisInput))
	return fmt.Sprintf("%x", h)
}

func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}
