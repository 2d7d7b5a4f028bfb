// Package statusline rewrites individual terminal output lines in place.
//
// A Session numbers the lines it prints from zero downward. SetLine rewrites
// any previously printed line as long as it is still inside the visible
// terminal area; a line that scrolled out is silently left alone. Reset
// restarts the numbering so an unrelated report can reuse the session.
//
// Each Session tracks its own cursor bookkeeping, so independent renderers
// can coexist on different writers without interference.
package statusline

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// fallbackHeight is assumed when the writer is forced into terminal mode but
// its real dimensions cannot be queried.
const fallbackHeight = 24

// Session owns one region of virtual output lines on a single writer.
// Methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	out    io.Writer
	tty    bool
	height func() int
	lowest int // virtual lines printed so far; the cursor sits below them
}

// Option configures a Session.
type Option func(*Session)

// WithTTY forces terminal behavior on or off instead of sniffing the writer.
func WithTTY(enabled bool) Option {
	return func(s *Session) {
		s.tty = enabled
	}
}

// WithHeight pins the visible height to rows instead of querying the
// terminal. Panics if rows < 1.
func WithHeight(rows int) Option {
	if rows < 1 {
		panic("statusline: height must be at least 1")
	}

	return func(s *Session) {
		s.height = func() int { return rows }
	}
}

// New creates a Session writing to out. When out is a terminal, SetLine
// rewrites lines in place; otherwise every SetLine appends a plain line.
func New(out io.Writer, opts ...Option) *Session {
	s := &Session{
		out:    out,
		height: func() int { return fallbackHeight },
	}

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		s.tty = true
		s.height = func() int {
			_, rows, err := term.GetSize(int(f.Fd()))
			if err != nil || rows < 1 {
				return fallbackHeight
			}
			return rows
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// SetLine writes text to virtual line. Lines print top to bottom on first
// use; writing past the lowest printed line pads the gap with blank lines.
// Rewriting a line that already scrolled above the visible area is a no-op.
//
// text must not contain newlines; they would desynchronize the cursor
// bookkeeping.
func (s *Session) SetLine(line int, text string) error {
	if line < 0 {
		return fmt.Errorf("statusline: negative line %d", line)
	}
	if strings.ContainsRune(text, '\n') {
		return fmt.Errorf("statusline: text for line %d contains a newline", line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tty {
		_, err := fmt.Fprintln(s.out, text)
		return err
	}

	if line >= s.lowest {
		var b strings.Builder
		for i := s.lowest; i < line; i++ {
			b.WriteByte('\n')
		}
		b.WriteString(text)
		b.WriteByte('\n')
		s.lowest = line + 1
		_, err := io.WriteString(s.out, b.String())
		return err
	}

	// The cursor rests one row below the lowest printed line, so the target
	// sits up rows above it. Only height-1 rows above the cursor can still
	// be on screen.
	up := s.lowest - line
	if up >= s.height() {
		return nil
	}

	_, err := fmt.Fprintf(s.out, "\x1b[%dA\r\x1b[2K%s\x1b[%dB\r", up, text, up)
	return err
}

// Reset restarts virtual line numbering from zero. Previously printed lines
// are left on screen; the next SetLine begins a fresh region below them.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lowest = 0
}

// Lines reports how many virtual lines the current region has printed.
func (s *Session) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lowest
}
