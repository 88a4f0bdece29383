// Package terminal reads answers typed by the user.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

type line struct {
	text string
	err  error
}

// LineReader owns an interactive input. One goroutine reads it, so any number
// of prompts may share the reader, and a line that arrives after a prompt gave
// up is handed to the next caller instead of being lost.
type LineReader struct {
	in    *bufio.Reader
	start sync.Once
	lines chan line
}

// NewLineReader creates a LineReader on in. Nothing is read until the first
// ReadLine call.
func NewLineReader(in io.Reader) *LineReader {
	return &LineReader{
		in:    bufio.NewReader(in),
		lines: make(chan line),
	}
}

// ReadLine returns the next line without its terminator. It returns ctx.Err()
// if ctx is done first and io.EOF once the input is exhausted. A final line
// without a newline is returned as a normal line.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	r.start.Do(func() { go r.loop() })

	select {
	case l, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// loop reads at most one line ahead of the callers.
func (r *LineReader) loop() {
	defer close(r.lines)
	for {
		text, err := r.in.ReadString('\n')
		text = strings.TrimRight(text, "\r\n")
		if err == nil || text != "" {
			r.lines <- line{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.lines <- line{err: err}
			}
			return
		}
	}
}
