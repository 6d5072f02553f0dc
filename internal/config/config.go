// Package config resolves serialterm settings from the command line, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Mode selects the outbound driver.
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModePeriodic    Mode = "periodic"
)

const (
	// DefaultDevice is the serial device used when none is given.
	DefaultDevice   = "/dev/ttyUSB0"
	DefaultBaudRate = 115200
	DefaultMessage  = `print("hello")`
	DefaultInterval = 2 * time.Second

	envPrefix = "SERIALTERM_"
)

// ErrHelp is returned by Load when usage was requested and printed.
var ErrHelp = pflag.ErrHelp

// Config is the resolved configuration of one serialterm run.
type Config struct {
	Device    string
	BaudRate  int
	Exclusive bool
	Mode      Mode
	Message   string
	Interval  time.Duration
	Resync    bool
	LogLevel  slog.Level
	Version   bool
}

// LoadDotEnv loads path into the process environment if it exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load parses args (without the program name). lookup reads environment
// variables; pass os.LookupEnv in production. Usage goes to usage.
func Load(args []string, lookup func(string) (string, bool), usage io.Writer) (Config, error) {
	cfg := Config{
		Device:   DefaultDevice,
		BaudRate: DefaultBaudRate,
		Mode:     ModeInteractive,
		Message:  DefaultMessage,
		Interval: DefaultInterval,
		LogLevel: slog.LevelInfo,
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	var mode, logLevel string
	flagSet := pflag.NewFlagSet("serialterm", pflag.ContinueOnError)
	flagSet.SetOutput(usage)
	flagSet.Usage = func() { printUsage(usage, flagSet) }
	flagSet.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "line speed in baud")
	flagSet.BoolVar(&cfg.Exclusive, "exclusive", false, "open the device exclusively (TIOCEXCL)")
	flagSet.StringVar(&mode, "mode", string(cfg.Mode), "outbound driver: interactive or periodic")
	flagSet.StringVar(&cfg.Message, "message", cfg.Message, "line sent in periodic mode")
	flagSet.DurationVar(&cfg.Interval, "interval", cfg.Interval, "send interval in periodic mode")
	flagSet.BoolVar(&cfg.Resync, "resync", cfg.Resync, "skip lines that are not valid UTF-8 instead of stopping")
	flagSet.StringVar(&logLevel, "log-level", levelName(cfg.LogLevel), "debug, info, warn or error")
	flagSet.BoolVar(&cfg.Version, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	switch rest := flagSet.Args(); len(rest) {
	case 0:
	case 1:
		cfg.Device = rest[0]
	default:
		return Config{}, fmt.Errorf("unexpected argument: %s", rest[1])
	}

	var err error
	if cfg.Mode, err = parseMode(mode); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = parseLevel(logLevel); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("DEVICE"); ok {
		c.Device = v
	}
	if v, ok := get("BAUD"); ok {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBAUD: %w", envPrefix, err)
		}
		c.BaudRate = baud
	}
	if v, ok := get("MODE"); ok {
		mode, err := parseMode(v)
		if err != nil {
			return fmt.Errorf("%sMODE: %w", envPrefix, err)
		}
		c.Mode = mode
	}
	if v, ok := get("MESSAGE"); ok {
		c.Message = v
	}
	if v, ok := get("INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sINTERVAL: %w", envPrefix, err)
		}
		c.Interval = d
	}
	if v, ok := get("RESYNC"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRESYNC: %w", envPrefix, err)
		}
		c.Resync = b
	}
	if v, ok := get("LOG_LEVEL"); ok {
		level, err := parseLevel(v)
		if err != nil {
			return fmt.Errorf("%sLOG_LEVEL: %w", envPrefix, err)
		}
		c.LogLevel = level
	}
	return nil
}

func (c Config) validate() error {
	if c.Device == "" {
		return errors.New("device path is empty")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.Mode == ModePeriodic && c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	return nil
}

func parseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeInteractive, ModePeriodic:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want interactive or periodic)", s)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func levelName(l slog.Level) string { return strings.ToLower(l.String()) }

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `serialterm - interactive terminal for a serial device

USAGE
    serialterm [flags] [device]

The device defaults to %s. Press Ctrl-] to quit an interactive session.

FLAGS
%s
ENVIRONMENT
    %sDEVICE, %sBAUD, %sMODE, %sMESSAGE, %sINTERVAL, %sRESYNC, %sLOG_LEVEL
    are read from the environment or a .env file; flags take precedence.
`, DefaultDevice, flagSet.FlagUsages(),
		envPrefix, envPrefix, envPrefix, envPrefix, envPrefix, envPrefix, envPrefix)
}
