package cliui

import (
	"io"
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// Terminal describes where CLI output goes.
type Terminal struct {
	Out   io.Writer
	IsTTY bool
	Width int
}

// DetectTerminal inspects w. Non-file writers and redirected files are not
// terminals and get the default width.
func DetectTerminal(w io.Writer) Terminal {
	t := Terminal{Out: w, Width: defaultWidth}

	f, ok := w.(*os.File)
	if !ok {
		return t
	}

	fd := int(f.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return t
	}
	t.IsTTY = true

	if width, _, err := term.GetSize(fd); err == nil && width > 0 {
		t.Width = width
	}

	return t
}
