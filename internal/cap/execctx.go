package cap

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ExecutionContext holds the three standard stream handles a command runs
// with. Every handle it holds is exclusively owned: replacing or closing a
// slot closes the handle that was there, and handing a handle to another
// owner goes through Take or Clone. A nil slot is a closed descriptor.
type ExecutionContext struct {
	files [3]*os.File
}

// NewExecutionContext duplicates stdin, stdout and stderr so the context
// owns independent handles. The originals stay open and untouched.
func NewExecutionContext(stdin, stdout, stderr *os.File) (*ExecutionContext, error) {
	ec := &ExecutionContext{}
	for fd, f := range []*os.File{stdin, stdout, stderr} {
		if f == nil {
			continue
		}
		d, err := DupFile(f)
		if err != nil {
			ec.Close()
			return nil, fmt.Errorf("duplicate descriptor %d: %w", fd, err)
		}
		ec.files[fd] = d
	}
	return ec, nil
}

// Adopt builds a context that takes ownership of the given handles.
func Adopt(stdin, stdout, stderr *os.File) *ExecutionContext {
	return &ExecutionContext{files: [3]*os.File{stdin, stdout, stderr}}
}

func (ec *ExecutionContext) Stdin() *os.File  { return ec.files[0] }
func (ec *ExecutionContext) Stdout() *os.File { return ec.files[1] }
func (ec *ExecutionContext) Stderr() *os.File { return ec.files[2] }

// File returns the handle in slot fd without transferring ownership.
func (ec *ExecutionContext) File(fd int) *os.File {
	if !Valid(fd) {
		return nil
	}
	return ec.files[fd]
}

// Valid reports whether fd names one of the three standard slots.
func Valid(fd int) bool {
	return fd >= 0 && fd < 3
}

// Replace installs f in slot fd, closing whatever was there.
func (ec *ExecutionContext) Replace(fd int, f *os.File) error {
	if !Valid(fd) {
		return BadFdError(fd)
	}
	old := ec.files[fd]
	ec.files[fd] = f
	if old != nil && old != f {
		return old.Close()
	}
	return nil
}

// Alias makes slot dst refer to a duplicate of the handle currently in
// slot src. Later changes to src do not affect dst.
func (ec *ExecutionContext) Alias(dst, src int) error {
	if !Valid(dst) {
		return BadFdError(dst)
	}
	if !Valid(src) || ec.files[src] == nil {
		return BadFdError(src)
	}
	if dst == src {
		return nil
	}
	d, err := DupFile(ec.files[src])
	if err != nil {
		return fmt.Errorf("duplicate descriptor %d: %w", src, err)
	}
	return ec.Replace(dst, d)
}

// CloseFd closes slot fd.
func (ec *ExecutionContext) CloseFd(fd int) error {
	return ec.Replace(fd, nil)
}

// Take removes the handle in slot fd and returns it; the caller owns it.
func (ec *ExecutionContext) Take(fd int) *os.File {
	if !Valid(fd) {
		return nil
	}
	f := ec.files[fd]
	ec.files[fd] = nil
	return f
}

// Clone returns an independently owned duplicate of slot fd, or nil if the
// slot is closed.
func (ec *ExecutionContext) Clone(fd int) (*os.File, error) {
	f := ec.File(fd)
	if f == nil {
		return nil, nil
	}
	return DupFile(f)
}

// Close releases every handle still owned by the context.
func (ec *ExecutionContext) Close() error {
	var errs []error
	for fd := range ec.files {
		if f := ec.Take(fd); f != nil {
			if err := f.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// BadFdError reports a descriptor outside the supported range.
type BadFdError int

func (e BadFdError) Error() string {
	return fmt.Sprintf("%d: bad file descriptor", int(e))
}

// DupFile returns a close-on-exec duplicate of f that can be closed
// independently of it.
func DupFile(f *os.File) (*os.File, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return nil, err
	}
	var nfd int
	var dupErr error
	if err := rc.Control(func(fd uintptr) {
		nfd, dupErr = unix.FcntlInt(fd, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, os.NewSyscallError("fcntl", dupErr)
	}
	return os.NewFile(uintptr(nfd), f.Name()), nil
}
