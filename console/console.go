// Package console puts the local terminal into raw mode and delivers
// keystrokes as key events.
package console

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/luhtfiimanal/go-serial-term/keys"
)

const (
	// DefaultEscapeTimeout is how long a lone ESC waits for the rest of an
	// escape sequence before it is reported as the Escape key.
	DefaultEscapeTimeout = 50 * time.Millisecond

	// idlePoll bounds how long the reader blocks before checking for Close.
	idlePoll = 100 * time.Millisecond
)

// ErrNotTerminal is returned by Open when the input is not a tty.
var ErrNotTerminal = errors.New("console: input is not a terminal")

// Options configures a Console.
type Options struct {
	// In is the keyboard. Defaults to os.Stdin.
	In            *os.File
	EscapeTimeout time.Duration
	Logger        *slog.Logger
}

// Console is a raw-mode keyboard. Close must run on every exit path so the
// terminal is returned to cooked mode.
type Console struct {
	fd      int
	oldTerm *term.State
	logger  *slog.Logger
	escWait time.Duration

	events    chan keys.Event
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open switches the input terminal to raw mode and starts reading keys.
func Open(opts Options) (*Console, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.EscapeTimeout <= 0 {
		opts.EscapeTimeout = DefaultEscapeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fd := int(opts.In.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set terminal raw mode: %w", err)
	}

	c := &Console{
		fd:      fd,
		oldTerm: old,
		logger:  opts.Logger,
		escWait: opts.EscapeTimeout,
		events:  make(chan keys.Event, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events returns the key event stream. It is closed when the input ends,
// fails, or the console is closed.
func (c *Console) Events() <-chan keys.Event { return c.events }

// Close stops the reader and restores the terminal. Safe to call multiple
// times.
func (c *Console) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		select {
		case <-c.done:
		case <-time.After(2 * idlePoll):
			// Reader stuck in a read; restore anyway.
		}
		err = term.Restore(c.fd, c.oldTerm)
	})
	return err
}

func (c *Console) readLoop() {
	defer close(c.done)
	defer close(c.events)

	var parser Parser
	buf := make([]byte, 256)
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		timeout := idlePoll
		if parser.Pending() {
			timeout = c.escWait
		}
		fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			c.logger.Error("poll keyboard", "error", err)
			return
		}
		if n == 0 {
			if !c.emit(parser.Flush()) {
				return
			}
			continue
		}

		rn, err := unix.Read(c.fd, buf)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			c.logger.Debug("keyboard closed", "error", err)
			return
		}
		if rn == 0 {
			c.logger.Debug("keyboard reached end of input")
			return
		}
		if !c.emit(parser.Feed(buf[:rn])) {
			return
		}
	}
}

func (c *Console) emit(events []keys.Event) bool {
	for _, ev := range events {
		select {
		case c.events <- ev:
		case <-c.stop:
			return false
		}
	}
	return true
}
