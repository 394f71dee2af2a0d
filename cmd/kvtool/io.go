package main

import (
	"fmt"
	"io"
)

// IO wraps the stdout/stderr writers passed into Run, matching the
// teacher's cli.IO shape: commands never touch os.Stdout/os.Stderr
// directly, which keeps them testable against bytes.Buffer.
type IO struct {
	out    io.Writer
	errOut io.Writer
}

func newIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}
