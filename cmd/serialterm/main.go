// serialterm connects the local terminal to a device on a serial line.
//
// Lines received from the device are written to standard output as they
// arrive. In interactive mode (the default) every keystroke is sent to the
// device as the byte sequence a VT100-style terminal would produce; press
// Ctrl-] to quit. In periodic mode a fixed line is sent on an interval
// instead, which is handy for smoke-testing a board's REPL.
//
// Usage:
//
//	serialterm [--baud 115200] [--mode interactive|periodic] [device]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	serial "github.com/luhtfiimanal/go-serial-term"
	"github.com/luhtfiimanal/go-serial-term/console"
	"github.com/luhtfiimanal/go-serial-term/internal/config"
	"github.com/luhtfiimanal/go-serial-term/session"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(os.Args[1:], os.LookupEnv, os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if cfg.Version {
		fmt.Printf("serialterm %s\n", version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := newLogger(os.Stderr, cfg.LogLevel)

	port, err := serial.Open(serial.Config{
		Device:    cfg.Device,
		BaudRate:  cfg.BaudRate,
		Exclusive: cfg.Exclusive,
	})
	if err != nil {
		return err
	}
	defer port.Close()
	rx, tx := port.Split()

	var driver session.Driver
	switch cfg.Mode {
	case config.ModePeriodic:
		driver = &session.Periodic{Message: cfg.Message, Interval: cfg.Interval}
	default:
		keyboard, err := console.Open(console.Options{Logger: logger})
		if err != nil {
			return fmt.Errorf("open keyboard: %w", err)
		}
		defer keyboard.Close()

		// Raw mode turns off output post-processing on the tty.
		logger = newLogger(console.LineWriter{W: os.Stderr}, cfg.LogLevel)
		driver = &session.Interactive{Keys: keyboard.Events(), OnQuit: cancel}
	}

	logger.Info("connected",
		"device", port.Device(),
		"baud", cfg.BaudRate,
		"mode", cfg.Mode)

	stats, err := session.Run(ctx, session.Options{
		Read:    rx,
		Write:   tx,
		Display: os.Stdout,
		Driver:  driver,
		Logger:  logger,
		Resync:  cfg.Resync,
	})
	logger.Info("disconnected",
		"device", port.Device(),
		"frames", stats.Frames,
		"bytes_out", stats.BytesOut,
		"write_failures", stats.WriteFailures)
	return err
}
