package journal

import "time"

// Entry is a single journal record.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Session  string    `json:"session"`         // shell session that ran the line
	Line     string    `json:"line"`            // command line as typed
	Stages   []string  `json:"stages"`          // argv[0] of each pipeline stage
	ExitCode int       `json:"exit_code"`       // 0 = success
	Error    string    `json:"error,omitempty"` // shell-level error, if any
	Duration float64   `json:"duration_ms"`     // execution time in milliseconds
	Cwd      string    `json:"cwd"`             // working directory
	Hash     string    `json:"hash"`            // SHA-256 of this entry (with hash field empty)
}

// Record is what a caller supplies for one executed line.
type Record struct {
	Line     string
	Stages   []string
	ExitCode int
	Error    string
	Duration time.Duration
	Cwd      string
}
