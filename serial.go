package serial

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultBaudRate is used when Config.BaudRate is zero.
const DefaultBaudRate = 115200

// ErrClosed is returned by Read and Write once the port has been closed.
var ErrClosed = errors.New("serial: port closed")

// OpenError reports a device that could not be opened or configured.
type OpenError struct {
	Device string
	Err    error
}

// Error returns "open <device>: <cause>".
func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Device, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OpenError) Unwrap() error { return e.Err }

// Config holds configuration parameters for opening a serial port.
type Config struct {
	Device   string
	BaudRate int
	// Exclusive requests TIOCEXCL. By default the port is opened
	// non-exclusive so other processes may attach to the same tty.
	Exclusive bool
}

// Port is an open serial device configured for raw 8N1 operation with no
// flow control. Reads are killable: Close unblocks a pending Read.
type Port struct {
	fd        int
	file      *os.File
	done      chan struct{}
	closeOnce sync.Once
	config    Config
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

// Open opens a serial port using the provided Config.
func Open(cfg Config) (*Port, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	baud, ok := baudToUnix(cfg.BaudRate)
	if !ok {
		return nil, &OpenError{Device: cfg.Device, Err: fmt.Errorf("unsupported baud rate %d", cfg.BaudRate)}
	}

	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, &OpenError{Device: cfg.Device, Err: err}
	}
	if err := configure(fd, baud, cfg.Exclusive); err != nil {
		syscall.Close(fd)
		return nil, &OpenError{Device: cfg.Device, Err: err}
	}

	// Turn back into blocking mode now that config is done
	if err := syscall.SetNonblock(fd, false); err != nil {
		syscall.Close(fd)
		return nil, &OpenError{Device: cfg.Device, Err: fmt.Errorf("set blocking: %w", err)}
	}

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return nil, &OpenError{Device: cfg.Device, Err: fmt.Errorf("pipe: %w", err)}
	}

	return &Port{
		fd:     fd,
		file:   os.NewFile(uintptr(fd), cfg.Device),
		done:   make(chan struct{}),
		config: cfg,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
	}, nil
}

func configure(fd int, baud uint32, exclusive bool) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN

	// 8N1, no software or hardware flow control
	termios.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	termios.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	// VMIN=1, VTIME=0: a read returns as soon as one byte is available
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}

	req := uint(unix.TIOCNXCL)
	if exclusive {
		req = unix.TIOCEXCL
	}
	if err := unix.IoctlSetInt(fd, req, 0); err != nil {
		return fmt.Errorf("set exclusivity: %w", err)
	}
	return nil
}

// Device returns the path the port was opened with.
func (s *Port) Device() string { return s.config.Device }

// Read blocks until bytes arrive on the device or the port is closed.
func (s *Port) Read(p []byte) (int, error) {
	for {
		// Use poll to wait for data or kill signal
		pfd := []unix.PollFd{
			{Fd: int32(s.fd), Events: unix.POLLIN},
			{Fd: int32(s.pipeR), Events: unix.POLLIN},
		}
		if _, err := unix.Poll(pfd, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("poll: %w", err)
		}
		select {
		case <-s.done:
			return 0, ErrClosed
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			return 0, ErrClosed
		}
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			n, err := s.file.Read(p)
			if n == 0 && err == nil {
				continue
			}
			return n, err
		}
	}
}

// Write writes p to the device.
func (s *Port) Write(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, ErrClosed
	default:
	}
	return s.file.Write(p)
}

// Close closes the serial port and unblocks any pending Read.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Port) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		// Wake up poll using self-pipe
		unix.Write(s.pipeW, []byte{1})
		err = s.file.Close()
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
	})
	return err
}

// ReadHalf is the inbound side of a split Port.
type ReadHalf struct{ port *Port }

// Read reads from the device; see Port.Read.
func (r *ReadHalf) Read(p []byte) (int, error) { return r.port.Read(p) }

// Close closes the whole port, waking the owner of the read half.
func (r *ReadHalf) Close() error { return r.port.Close() }

// WriteHalf is the outbound side of a split Port.
type WriteHalf struct{ port *Port }

// Write writes to the device; see Port.Write.
func (w *WriteHalf) Write(p []byte) (int, error) { return w.port.Write(p) }

// Split divides the port into a read half and a write half. Each half is
// meant to be owned by exactly one goroutine; with that discipline no
// further locking is needed.
func (s *Port) Split() (*ReadHalf, *WriteHalf) {
	return &ReadHalf{port: s}, &WriteHalf{port: s}
}

func baudToUnix(baud int) (uint32, bool) {
	switch baud {
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	default:
		return 0, false
	}
}
