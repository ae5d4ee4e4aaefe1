package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrUnterminatedQuote = errors.New("unterminated quote")
	ErrTrailingBackslash = errors.New("unexpected end of input after backslash")
)

// LexError reports where in the line tokenizing failed.
type LexError struct {
	Pos int // byte offset of the construct that was left open
	Err error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("syntax error at column %d: %v", e.Pos+1, e.Err)
}

func (e *LexError) Unwrap() error { return e.Err }

type lexState int

const (
	stateNormal lexState = iota
	stateSingleQuote
	stateDoubleQuote
	stateEscaping
	stateDoubleQuoteEscaping
)

type lexer struct {
	line   string
	tokens []RawToken
	word   strings.Builder
	start  int // offset where the current word began, -1 if none
}

// Tokenize converts a command line into raw tokens, resolving quoting and
// escaping. Quote and escape characters never appear in the output.
func Tokenize(line string) ([]RawToken, error) {
	lx := &lexer{line: line, start: -1}
	state := stateNormal
	opened := 0

	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		ch := line[i : i+size]
		switch state {
		case stateNormal:
			switch {
			case unicode.IsSpace(r):
				lx.flush(false)
			case r == '|':
				lx.flush(false)
				lx.tokens = append(lx.tokens, RawToken{Kind: TokPipe, Start: i})
			case r == '>' || r == '<':
				lx.flush(true)
				n := lx.operator(i)
				i += n
				continue
			case r == '\'':
				lx.mark(i)
				opened = i
				state = stateSingleQuote
			case r == '"':
				lx.mark(i)
				opened = i
				state = stateDoubleQuote
			case r == '\\':
				lx.mark(i)
				opened = i
				state = stateEscaping
			default:
				lx.mark(i)
				lx.word.WriteString(ch)
			}
		case stateSingleQuote:
			if r == '\'' {
				state = stateNormal
			} else {
				lx.word.WriteString(ch)
			}
		case stateDoubleQuote:
			switch r {
			case '"':
				state = stateNormal
			case '\\':
				state = stateDoubleQuoteEscaping
			default:
				lx.word.WriteString(ch)
			}
		case stateEscaping:
			lx.word.WriteString(ch)
			state = stateNormal
		case stateDoubleQuoteEscaping:
			switch r {
			case '"', '\\', '$', '`':
			default:
				lx.word.WriteByte('\\')
			}
			lx.word.WriteString(ch)
			state = stateDoubleQuote
		}
		i += size
	}

	switch state {
	case stateSingleQuote, stateDoubleQuote, stateDoubleQuoteEscaping:
		return nil, &LexError{Pos: opened, Err: ErrUnterminatedQuote}
	case stateEscaping:
		return nil, &LexError{Pos: opened, Err: ErrTrailingBackslash}
	}
	lx.flush(false)
	return lx.tokens, nil
}

func (lx *lexer) mark(i int) {
	if lx.start < 0 {
		lx.start = i
	}
}

// flush emits the pending word. When beforeRedirect is set, an all-digit
// word that fits a descriptor number is emitted as an IO number instead.
func (lx *lexer) flush(beforeRedirect bool) {
	if lx.word.Len() == 0 {
		lx.start = -1
		return
	}
	text := lx.word.String()
	lx.word.Reset()
	tok := RawToken{Kind: TokWord, Text: text, Start: lx.start}
	if beforeRedirect {
		if n, ok := ioNumber(text); ok {
			tok = RawToken{Kind: TokIoNumber, Fd: n, Start: lx.start}
		}
	}
	lx.tokens = append(lx.tokens, tok)
	lx.start = -1
}

// operator emits the redirect operator starting at line[i] and returns the
// number of bytes consumed.
func (lx *lexer) operator(i int) int {
	first := lx.line[i]
	text := string(first)
	if i+1 < len(lx.line) {
		if second := lx.line[i+1]; second == first || second == '&' {
			text += string(second)
		}
	}
	op, _ := ParseRedirectOp(text)
	lx.tokens = append(lx.tokens, RawToken{Kind: TokRedirect, Op: op, Start: i})
	return len(text)
}

// ioNumber reports whether s is a run of ASCII digits small enough to
// name a descriptor.
func ioNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		if n = n*10 + int(c-'0'); n > 255 {
			return 0, false
		}
	}
	return n, true
}
