// Package session runs a terminal session against a serial device: frames
// read from the device go to the display, and an outbound driver decides
// what gets written back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/luhtfiimanal/go-serial-term/codec"
)

// Inbound is one result from the frame pump: a decoded frame or the error
// that ended the read path.
type Inbound struct {
	Frame string
	Err   error
}

// WriteError reports an outbound write that did not complete. The loop
// logs it and keeps going.
type WriteError struct {
	Payload []byte
	Err     error
}

// Error reports the payload size and the cause.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %d bytes: %v", len(e.Payload), e.Err)
}

// Unwrap returns the underlying write error.
func (e *WriteError) Unwrap() error { return e.Err }

// Stats counts what a Loop dispatched.
type Stats struct {
	Frames        int
	BytesOut      int
	WriteFailures int
}

// Loop multiplexes inbound frames and outbound driver payloads.
//
// Readiness races are settled by select, which picks uniformly among ready
// cases, so a busy source cannot starve the other. A source whose channel
// closes is dropped from the race for good.
type Loop struct {
	Frames  <-chan Inbound
	Driver  Driver
	Port    io.Writer
	Display io.Writer
	Logger  *slog.Logger

	stats Stats
}

// Stats returns the counters of the last Run.
func (l *Loop) Stats() Stats { return l.stats }

// Run dispatches events until ctx is cancelled, both sources are exhausted,
// or the inbound path fails. The inbound failure is returned; cancellation
// and exhaustion return nil.
func (l *Loop) Run(ctx context.Context) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	driverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := l.Frames
	outbound := l.Driver.Start(driverCtx)

	for frames != nil || outbound != nil {
		select {
		case <-ctx.Done():
			return nil

		case in, ok := <-frames:
			if !ok {
				logger.Info("serial input ended")
				frames = nil
				continue
			}
			if errors.Is(in.Err, codec.ErrTrailingData) {
				logger.Warn("serial input ended mid-line", "error", in.Err)
				frames = nil
				continue
			}
			if in.Err != nil {
				return fmt.Errorf("read frame: %w", in.Err)
			}
			l.stats.Frames++
			if _, err := io.WriteString(l.Display, in.Frame); err != nil {
				logger.Warn("display write failed", "error", err)
			}

		case payload, ok := <-outbound:
			if !ok {
				logger.Debug("outbound driver finished")
				outbound = nil
				continue
			}
			n, err := l.Port.Write(payload)
			l.stats.BytesOut += n
			if err == nil && n < len(payload) {
				err = io.ErrShortWrite
			}
			if err != nil {
				l.stats.WriteFailures++
				werr := &WriteError{Payload: payload, Err: err}
				logger.Error("serial write failed", "error", werr)
			}
		}
	}
	return nil
}

// frameSource yields decoded frames; *codec.Reader implements it.
type frameSource interface {
	Next() (string, error)
}

// pumpFrames reads frames from src in arrival order and sends them on out.
// It is the only reader of src. out carries at most one error and is
// closed after it, or at a clean end of stream, or when ctx is done.
func pumpFrames(ctx context.Context, src frameSource, out chan<- Inbound) {
	defer close(out)
	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		select {
		case out <- Inbound{Frame: frame, Err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
