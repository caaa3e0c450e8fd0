package msg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Verbose enables Debug output
var Verbose bool

// Output is where messages are printed
var Output io.Writer = os.Stdout

// exit terminates the process after Fatal; tests replace it
var exit = os.Exit

func emit(prefix, format string, a ...any) {
	fmt.Fprint(Output, prefix)
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
}

func Error(format string, a ...any) {
	emit(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	emit(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	emit(color.RedString("fatal"), format, a...)
	exit(1)
}

func Info(format string, a ...any) {
	emit(color.HiGreenString("info"), format, a...)
}

func Debug(format string, a ...any) {
	if !Verbose {
		return
	}
	emit(color.HiBlackString("debug"), format, a...)
}

// IndentWriter prefixes every line written through it with Indent
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
	buf       bytes.Buffer
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	w.buf.Reset()
	for _, c := range p {
		if !w.didIndent {
			w.buf.WriteString(w.Indent)
			w.didIndent = true
		}
		w.buf.WriteByte(c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if _, err := w.W.Write(w.buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
