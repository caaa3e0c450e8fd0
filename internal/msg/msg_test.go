package msg

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOutput, prevNoColor := Output, color.NoColor
	Output, color.NoColor = &buf, true
	t.Cleanup(func() { Output, color.NoColor = prevOutput, prevNoColor })
	return &buf
}

func TestMessages(t *testing.T) {
	buf := capture(t)

	Info("wrote %s", "build/build.ninja")
	Warn("%d warnings", 2)
	Error("oops")
	assert.Equal(t, "info: wrote build/build.ninja\nwarn: 2 warnings\nerror: oops\n", buf.String())
}

func TestDebugRequiresVerbose(t *testing.T) {
	buf := capture(t)
	t.Cleanup(func() { Verbose = false })

	Debug("hidden")
	assert.Empty(t, buf.String())

	Verbose = true
	Debug("shown %d", 1)
	assert.Equal(t, "debug: shown 1\n", buf.String())
}

func TestFatalExits(t *testing.T) {
	buf := capture(t)
	code := -1
	prevExit := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = prevExit })

	Fatal("no %s", "build.go")
	assert.Equal(t, 1, code)
	assert.Equal(t, "fatal: no build.go\n", buf.String())
}

func TestIndentWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &IndentWriter{Indent: "  | ", W: &buf}

	_, err := w.Write([]byte("first line\nsecond "))
	assert.NoError(t, err)
	_, err = w.Write([]byte("half\nthird\n"))
	assert.NoError(t, err)

	assert.Equal(t, "  | first line\n  | second half\n  | third\n", buf.String())
}
