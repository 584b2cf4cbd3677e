package cli

import (
	"fmt"
	"io"
)

// IO handles command output. It doubles as the store notifier so async
// mutation outcomes reach the terminal.
type IO struct {
	out    io.Writer
	errOut io.Writer
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Success implements the notifier contract for confirmed mutations.
func (o *IO) Success(msg string) {
	o.Println("ok:", msg)
}

// Failure implements the notifier contract for rejected mutations.
func (o *IO) Failure(msg string) {
	o.ErrPrintln("error:", msg)
}
