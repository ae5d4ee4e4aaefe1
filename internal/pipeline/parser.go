package pipeline

import (
	"fmt"
)

// ParseError reports a malformed command line.
type ParseError struct {
	Near string // offending token text, "newline" at end of input
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error near unexpected token `%s'", e.Near)
}

// ParseLine tokenizes and parses one command line.
func ParseLine(line string) (CommandType, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return CommandType{}, err
	}
	return Parse(tokens)
}

// Parse splits tokens on pipe markers and builds one Command per group.
// A single group yields a Simple command type, more yield a Pipeline.
func Parse(tokens []RawToken) (CommandType, error) {
	var groups [][]RawToken
	var current []RawToken
	for _, tok := range tokens {
		if tok.Kind == TokPipe {
			if len(current) == 0 {
				return CommandType{}, &ParseError{Near: "|"}
			}
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, tok)
	}
	if len(current) == 0 && len(groups) > 0 {
		return CommandType{}, &ParseError{Near: "|"}
	}
	groups = append(groups, current)

	ct := CommandType{Pipeline: len(groups) > 1}
	for _, g := range groups {
		c, err := ParseSimpleCommand(g)
		if err != nil {
			return CommandType{}, err
		}
		ct.Commands = append(ct.Commands, c)
	}
	return ct, nil
}

// ParseSimpleCommand groups the words of one pipe-free token run into argv
// and its redirection directives into an ordered list.
func ParseSimpleCommand(tokens []RawToken) (Command, error) {
	var c Command
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		switch tok.Kind {
		case TokWord:
			c.Argv = append(c.Argv, tok.Text)
			i++
		case TokIoNumber:
			if i+1 >= len(tokens) || tokens[i+1].Kind != TokRedirect {
				return Command{}, &ParseError{Near: near(tokens, i+1)}
			}
			r, err := redirection(tok.Fd, tokens, i+1)
			if err != nil {
				return Command{}, err
			}
			c.Redirections = append(c.Redirections, r)
			i += 3
		case TokRedirect:
			r, err := redirection(-1, tokens, i)
			if err != nil {
				return Command{}, err
			}
			c.Redirections = append(c.Redirections, r)
			i += 2
		default:
			return Command{}, &ParseError{Near: near(tokens, i)}
		}
	}
	return c, nil
}

// redirection builds the Redirection whose operator is tokens[i] and whose
// target is tokens[i+1].
func redirection(src int, tokens []RawToken, i int) (Redirection, error) {
	op := tokens[i].Op
	if i+1 >= len(tokens) || tokens[i+1].Kind != TokWord {
		return Redirection{}, &ParseError{Near: near(tokens, i+1)}
	}
	return Redirection{SrcFd: src, Op: op, Target: parseTarget(op, tokens[i+1].Text)}, nil
}

func parseTarget(op RedirectOp, word string) Target {
	if op == Heredoc {
		return Target{Kind: TargetHeredoc, Word: word}
	}
	if word == "-" {
		return Target{Kind: TargetClose, Word: word}
	}
	if n, ok := ioNumber(word); ok {
		return Target{Kind: TargetFd, Word: word, Fd: n}
	}
	return Target{Kind: TargetFile, Word: word}
}

func near(tokens []RawToken, i int) string {
	if i >= len(tokens) {
		return "newline"
	}
	switch t := tokens[i]; t.Kind {
	case TokWord:
		return t.Text
	case TokPipe:
		return "|"
	case TokIoNumber:
		return fmt.Sprintf("%d", t.Fd)
	default:
		return t.Op.String()
	}
}
