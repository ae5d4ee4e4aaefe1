package pipeline

import (
	"fmt"
	"strings"
)

// RedirectOp identifies a redirection operator.
type RedirectOp int

const (
	Out       RedirectOp = iota // >   truncate/create for writing
	OutAppend                   // >>  append/create for writing
	In                          // <   open for reading
	DupOut                      // >&  duplicate an output descriptor
	DupIn                       // <&  duplicate an input descriptor
	Heredoc                     // <<  here-document (parsed, inert)
)

func (op RedirectOp) String() string {
	switch op {
	case Out:
		return ">"
	case OutAppend:
		return ">>"
	case In:
		return "<"
	case DupOut:
		return ">&"
	case DupIn:
		return "<&"
	case Heredoc:
		return "<<"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// ParseRedirectOp converts operator text to a RedirectOp.
func ParseRedirectOp(s string) (RedirectOp, error) {
	switch s {
	case ">":
		return Out, nil
	case ">>":
		return OutAppend, nil
	case "<":
		return In, nil
	case ">&":
		return DupOut, nil
	case "<&":
		return DupIn, nil
	case "<<":
		return Heredoc, nil
	default:
		return 0, fmt.Errorf("unknown redirect operator: %q", s)
	}
}

// defaultFd is the descriptor an operator applies to when no IO number
// precedes it.
func (op RedirectOp) defaultFd() int {
	switch op {
	case In, DupIn, Heredoc:
		return 0
	default:
		return 1
	}
}

// TokenKind classifies a RawToken.
type TokenKind int

const (
	TokWord TokenKind = iota
	TokPipe
	TokIoNumber
	TokRedirect
)

// RawToken is one lexical unit of a command line.
type RawToken struct {
	Kind  TokenKind
	Text  string     // TokWord: unquoted, unescaped text
	Fd    int        // TokIoNumber
	Op    RedirectOp // TokRedirect
	Start int        // byte offset of the token in the input line
}

func (t RawToken) String() string {
	switch t.Kind {
	case TokWord:
		return fmt.Sprintf("WORD %q", t.Text)
	case TokPipe:
		return "PIPE"
	case TokIoNumber:
		return fmt.Sprintf("IO_NUMBER %d", t.Fd)
	case TokRedirect:
		return "REDIRECT " + t.Op.String()
	default:
		return fmt.Sprintf("token(%d)", int(t.Kind))
	}
}

// TargetKind classifies a redirection target.
type TargetKind int

const (
	TargetFile TargetKind = iota
	TargetFd
	TargetClose
	TargetHeredoc
)

// Target is the right-hand side of a redirection. Word always holds the
// target word as written; Fd is set for TargetFd.
type Target struct {
	Kind TargetKind
	Word string
	Fd   int
}

func (t Target) String() string {
	switch t.Kind {
	case TargetFd:
		return fmt.Sprintf("&%d", t.Fd)
	case TargetClose:
		return "&-"
	case TargetHeredoc:
		return "<<" + t.Word
	default:
		return t.Word
	}
}

// Redirection is a single parsed redirect. SrcFd is -1 when no IO number
// was written and the operator default applies.
type Redirection struct {
	SrcFd  int
	Op     RedirectOp
	Target Target
}

// Fd returns the descriptor the redirection applies to.
func (r Redirection) Fd() int {
	if r.SrcFd < 0 {
		return r.Op.defaultFd()
	}
	return r.SrcFd
}

func (r Redirection) String() string {
	var b strings.Builder
	if r.SrcFd >= 0 {
		fmt.Fprintf(&b, "%d", r.SrcFd)
	}
	b.WriteString(r.Op.String())
	switch r.Target.Kind {
	case TargetFd:
		fmt.Fprintf(&b, "%d", r.Target.Fd)
	case TargetClose:
		b.WriteString("-")
	default:
		b.WriteString(r.Target.Word)
	}
	return b.String()
}

// Command is one simple command: argv plus its redirections in source
// order. Argv may be empty when only redirections were written.
type Command struct {
	Argv         []string
	Redirections []Redirection
}

// Name returns argv[0], or "" for a redirection-only command.
func (c Command) Name() string {
	if len(c.Argv) == 0 {
		return ""
	}
	return c.Argv[0]
}

// Args returns argv[1:].
func (c Command) Args() []string {
	if len(c.Argv) < 2 {
		return nil
	}
	return c.Argv[1:]
}

// CommandType is a parsed line: a single Simple command or a Pipeline of
// two or more commands.
type CommandType struct {
	Pipeline bool
	Commands []Command
}

// Simple returns a CommandType holding one command.
func Simple(c Command) CommandType {
	return CommandType{Commands: []Command{c}}
}

// Names returns argv[0] of every stage.
func (ct CommandType) Names() []string {
	names := make([]string, len(ct.Commands))
	for i, c := range ct.Commands {
		names[i] = c.Name()
	}
	return names
}
