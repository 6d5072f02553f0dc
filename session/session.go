package session

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/luhtfiimanal/go-serial-term/codec"
)

// Options wires a session to its device halves and sinks.
type Options struct {
	// Read and Write are the two halves of the serial connection. Closing
	// Read must unblock a pending Read call.
	Read  io.ReadCloser
	Write io.Writer

	Display io.Writer
	Driver  Driver
	Logger  *slog.Logger

	// Resync skips undecodable lines instead of ending the session.
	Resync bool
}

// Run drives a session until ctx is cancelled, both directions are
// exhausted, or the inbound path fails.
//
// The frame pump owns opts.Read and the loop owns opts.Write. When the loop
// returns, Read is closed so the pump wakes up and the group can finish.
func Run(ctx context.Context, opts Options) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader := codec.NewReader(opts.Read)
	reader.Resync = opts.Resync
	reader.OnInvalid = func(err error) {
		logger.Warn("skipped undecodable line", "error", err)
	}

	loop := &Loop{
		Driver:  opts.Driver,
		Port:    opts.Write,
		Display: opts.Display,
		Logger:  logger,
	}

	frames := make(chan Inbound)
	loop.Frames = frames

	g, gctx := errgroup.WithContext(ctx)
	pumpCtx, stopPump := context.WithCancel(gctx)

	g.Go(func() error {
		pumpFrames(pumpCtx, reader, frames)
		return nil
	})
	g.Go(func() error {
		defer opts.Read.Close()
		defer stopPump()
		return loop.Run(gctx)
	})

	err := g.Wait()
	stats := loop.Stats()
	logger.Debug("session finished",
		"frames", stats.Frames,
		"bytes_out", stats.BytesOut,
		"write_failures", stats.WriteFailures)
	return stats, err
}
