// Package input reads session command input from the CLI or any other
// input stream. One CommandReader serves both interactive and
// non-interactive use: it decides at construction time whether a GNU
// Readline session is worth setting up (only when reading the process's own
// terminal), and otherwise falls back to plain buffered reads, so callers
// never branch on the input mode themselves.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// CommandReader reads commands one line at a time. In interactive mode the
// lines come through a go implementation of the GNU Readline library, which
// keeps input clear of typing and editing escape sequences and enables
// command history; otherwise they come straight off the stream, unsanitized.
//
// Create one with NewReader. The returned CommandReader must have Close()
// called on it before disposal to properly teardown readline resources.
type CommandReader struct {
	rl            *readline.Instance // set iff interactive
	direct        *bufio.Reader      // set iff not interactive
	blanksAllowed bool
}

// NewReader creates a CommandReader over the given streams. Readline is
// used only when in and out are the process's own stdin and stdout and
// forceDirect is false; a pipe, a file, or an explicit forceDirect request
// all read directly instead, so scripted input never fights a line editor.
// prompt is what readline shows before each command; it is ignored in
// direct mode, where whatever is driving the stream owns the display.
func NewReader(in io.Reader, out io.Writer, prompt string, forceDirect bool) (*CommandReader, error) {
	if !forceDirect && in == os.Stdin && out == os.Stdout {
		rl, err := readline.NewEx(&readline.Config{
			Prompt: prompt,
		})
		if err != nil {
			return nil, fmt.Errorf("create readline config: %w", err)
		}
		return &CommandReader{rl: rl}, nil
	}

	return &CommandReader{direct: bufio.NewReader(in)}, nil
}

// Interactive reports whether commands are being read through readline.
func (cr *CommandReader) Interactive() bool {
	return cr.rl != nil
}

// AllowBlank sets whether ReadCommand may return blank lines. By default it
// may not, and blank input is skipped.
func (cr *CommandReader) AllowBlank(allow bool) {
	cr.blanksAllowed = allow
}

// SetPrompt updates the readline prompt to the given text. No-op in direct
// mode.
func (cr *CommandReader) SetPrompt(p string) {
	if cr.rl != nil {
		cr.rl.SetPrompt(p)
	}
}

// ReadCommand reads the next command line. Unless AllowBlank(true) was
// called, this blocks until a line containing non-space characters is read;
// the returned string will only be empty if there is an error.
//
// If at end of input, the returned string will be empty and error will be
// io.EOF. If any other error occurs, the returned string will be empty and
// error will be that error.
func (cr *CommandReader) ReadCommand() (string, error) {
	for {
		var line string
		var err error
		if cr.rl != nil {
			line, err = cr.rl.Readline()
		} else {
			line, err = cr.direct.ReadString('\n')
		}
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)
		if line != "" || cr.blanksAllowed {
			return line, nil
		}
		if err == io.EOF {
			return "", io.EOF
		}
	}
}

// Close cleans up readline resources, if any were created. It must be
// called even on a direct-mode reader; callers should not need to know
// which mode they got.
func (cr *CommandReader) Close() error {
	if cr.rl != nil {
		return cr.rl.Close()
	}
	return nil
}
