package pipeline

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/marcelocantos/ish/internal/cap"
)

var errAmbiguousRedirect = errors.New("ambiguous redirect")

// RedirectError reports a redirection that could not be applied.
type RedirectError struct {
	Target string
	Err    error
}

func (e *RedirectError) Error() string {
	return e.Target + ": " + e.Err.Error()
}

func (e *RedirectError) Unwrap() error { return e.Err }

// applyRedirections applies redirs to ec left to right. Each one replaces
// the handle in its descriptor slot, so the last one naming a slot wins.
// Duplications capture the handle current at the time they are applied.
func applyRedirections(ec *cap.ExecutionContext, redirs []Redirection, log *slog.Logger) error {
	for _, r := range redirs {
		if err := applyRedirection(ec, r, log); err != nil {
			return err
		}
		log.Debug("redirect", "redirection", r.String())
	}
	return nil
}

func applyRedirection(ec *cap.ExecutionContext, r Redirection, log *slog.Logger) error {
	fd := r.Fd()
	if !cap.Valid(fd) {
		return cap.BadFdError(fd)
	}

	switch r.Op {
	case Out:
		return openInto(ec, fd, r.Target.Word, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	case OutAppend:
		return openInto(ec, fd, r.Target.Word, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
	case In:
		return openInto(ec, fd, r.Target.Word, os.O_RDONLY)
	case DupOut, DupIn:
		switch r.Target.Kind {
		case TargetFd:
			if !cap.Valid(r.Target.Fd) {
				return cap.BadFdError(r.Target.Fd)
			}
			return ec.Alias(fd, r.Target.Fd)
		case TargetClose:
			return ec.CloseFd(fd)
		}
		// ">& file" with no descriptor sends both stdout and stderr to file.
		if r.Op == DupOut && r.SrcFd < 0 {
			if err := openInto(ec, 1, r.Target.Word, os.O_WRONLY|os.O_CREATE|os.O_TRUNC); err != nil {
				return err
			}
			return ec.Alias(2, 1)
		}
		return &RedirectError{Target: r.Target.Word, Err: errAmbiguousRedirect}
	case Heredoc:
		log.Debug("here-document ignored", "delimiter", r.Target.Word)
		return nil
	}
	return nil
}

func openInto(ec *cap.ExecutionContext, fd int, path string, flag int) error {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return &RedirectError{Target: path, Err: err}
	}
	return ec.Replace(fd, f)
}
