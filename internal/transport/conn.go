// Package transport speaks the game engine's line protocol: one JSON
// document per line in, two JSON action lines per turn out.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/freeeve/rampart/pkg/terminal"
)

// maxLineSize bounds a single frame line. Late-game frames with full boards
// run to a few hundred kilobytes.
const maxLineSize = 4 << 20

type lineResult struct {
	line []byte
	err  error
}

// Conn reads engine lines from r and writes replies to w. A single reader
// goroutine owns r so a canceled ReadLine never drops a line.
type Conn struct {
	mu sync.Mutex
	w  *bufio.Writer

	lines chan lineResult
}

// NewConn starts reading lines from r.
func NewConn(r io.Reader, w io.Writer) *Conn {
	c := &Conn{
		w:     bufio.NewWriter(w),
		lines: make(chan lineResult, 16),
	}
	go c.readLoop(r)
	return c
}

// NewStdio connects to the engine over the process's stdin and stdout.
func NewStdio() *Conn {
	return NewConn(os.Stdin, os.Stdout)
}

func (c *Conn) readLoop(r io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		c.lines <- lineResult{line: append([]byte(nil), line...)}
	}
	if err := scanner.Err(); err != nil {
		c.lines <- lineResult{err: fmt.Errorf("transport: scanner: %w", err)}
	}
}

// ReadLine returns the next non-empty line. It returns io.EOF once the
// engine closes its end.
func (c *Conn) ReadLine(ctx context.Context) ([]byte, error) {
	select {
	case r, ok := <-c.lines:
		if !ok {
			return nil, io.EOF
		}
		return r.line, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("transport: waiting for line: %w", ctx.Err())
	}
}

// SendActions writes the build stack then the deploy stack, one JSON line
// each, and flushes.
func (c *Conn) SendActions(build, deploy []terminal.Action) error {
	b, err := terminal.EncodeActions(build)
	if err != nil {
		return fmt.Errorf("transport: encode build: %w", err)
	}
	d, err := terminal.EncodeActions(deploy)
	if err != nil {
		return fmt.Errorf("transport: encode deploy: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range [][]byte{b, d} {
		if _, err := c.w.Write(line); err != nil {
			return fmt.Errorf("transport: write: %w", err)
		}
		if err := c.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("transport: write: %w", err)
		}
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("transport: flush: %w", err)
	}
	return nil
}

var _ terminal.Submitter = (*Conn)(nil)
