package term

import (
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var errNotTTY = errors.New("not a tty")

// Term is the terminal a command writes to.
type Term interface {
	In() io.Reader
	Out() io.Writer
	ErrOut() io.Writer
	IsTTY() bool
	Size() (int, int, error)
}

func System() Term {
	return FromIO(os.Stdin, os.Stdout, os.Stderr)
}

// FromIO returns a terminal over the given streams. Only an *os.File
// connected to a terminal is treated as a TTY.
func FromIO(in io.Reader, out, errOut io.Writer) Term {
	t := &ioTerm{in: in, out: out, errOut: errOut}
	if f, ok := out.(*os.File); ok {
		t.file = f
		t.isTTY = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return t
}

// Width returns the number of columns of t, or fallback when it is
// not a terminal.
func Width(t Term, fallback int) int {
	width, _, err := t.Size()
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

type ioTerm struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	file   *os.File
	isTTY  bool
}

func (t *ioTerm) In() io.Reader     { return t.in }
func (t *ioTerm) Out() io.Writer    { return t.out }
func (t *ioTerm) ErrOut() io.Writer { return t.errOut }
func (t *ioTerm) IsTTY() bool       { return t.isTTY }

func (t *ioTerm) Size() (int, int, error) {
	if !t.isTTY {
		return -1, -1, errNotTTY
	}
	return term.GetSize(int(t.file.Fd()))
}
