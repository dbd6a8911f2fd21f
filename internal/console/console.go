// Package console reads command lines from a terminal in its own goroutine
// and hands them to the game loop through InQueue.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Console is one interactive terminal. Input is read in a dedicated
// goroutine; output is buffered by the game loop and flushed once per tick.
type Console struct {
	in  io.Reader
	out io.Writer

	InQueue chan string // game loop reads lines from here

	outBuf []string // game loop only

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

// New wraps in and out with the named character encoding ("utf-8", "big5",
// "shift_jis", ...). Names follow the WHATWG encoding labels.
func New(in io.Reader, out io.Writer, encodingName string, inSize int, log *zap.Logger) (*Console, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Console{
		in:      transform.NewReader(in, enc.NewDecoder()),
		out:     enc.NewEncoder().Writer(out),
		InQueue: make(chan string, inSize),
		closeCh: make(chan struct{}),
		log:     log,
	}, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		name = "utf-8"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("console encoding %q: %w", name, err)
	}
	return enc, nil
}

// Start launches the reader goroutine.
func (c *Console) Start() {
	go c.readLoop()
}

// Send buffers a line of output. Not written until FlushOutput.
// Called only from the game loop goroutine.
func (c *Console) Send(line string) {
	c.outBuf = append(c.outBuf, line)
}

func (c *Console) Sendf(format string, a ...any) {
	c.Send(fmt.Sprintf(format, a...))
}

// FlushOutput writes buffered lines. Called by EmitSystem once per tick.
func (c *Console) FlushOutput() {
	for _, line := range c.outBuf {
		if _, err := io.WriteString(c.out, line+"\n"); err != nil {
			c.log.Warn("console write failed", zap.Error(err))
			break
		}
	}
	c.outBuf = c.outBuf[:0]
}

// Close stops the reader. Safe to call more than once.
func (c *Console) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.closeCh)
	})
}

// Done is closed once input reaches EOF or Close is called.
func (c *Console) Done() <-chan struct{} {
	return c.closeCh
}

func (c *Console) IsClosed() bool {
	return c.closed.Load()
}

// readLoop runs in its own goroutine and pushes every non-blank line onto
// InQueue, blocking while the queue is full.
func (c *Console) readLoop() {
	defer c.Close()

	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case c.InQueue <- line:
		case <-c.closeCh:
			return
		}
	}
	if err := sc.Err(); err != nil && !c.closed.Load() {
		c.log.Warn("console read error", zap.Error(err))
	}
}
