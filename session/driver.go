package session

import (
	"context"
	"time"

	"github.com/luhtfiimanal/go-serial-term/codec"
	"github.com/luhtfiimanal/go-serial-term/keys"
)

// Driver supplies the outbound side of a Loop.
type Driver interface {
	// Start begins producing payloads to write to the device. The channel
	// is closed when the driver has nothing more to send.
	Start(ctx context.Context) <-chan []byte
}

// QuitKey ends an interactive session: Ctrl-], which terminals deliver as
// byte 0x1d.
var QuitKey = keys.Ctrl('5')

// Interactive forwards translated keystrokes.
type Interactive struct {
	Keys <-chan keys.Event
	// OnQuit is called when QuitKey is pressed. The key itself is not sent.
	// When nil the quit key is forwarded like any other.
	OnQuit func()
}

// Start translates events from Keys until Keys closes, the quit key is
// pressed, or ctx is done. Untranslatable keys are dropped.
func (d *Interactive) Start(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			var ev keys.Event
			var ok bool
			select {
			case <-ctx.Done():
				return
			case ev, ok = <-d.Keys:
				if !ok {
					return
				}
			}

			if d.OnQuit != nil && ev == QuitKey {
				d.OnQuit()
				return
			}
			seq := keys.Translate(ev)
			if seq == nil {
				continue
			}
			select {
			case out <- seq:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// DefaultInterval is the Periodic send interval when none is set.
const DefaultInterval = 2 * time.Second

// Periodic sends Message as a CR LF terminated line right away and then
// once every Interval.
type Periodic struct {
	Message  string
	Interval time.Duration
}

// Start sends the encoded message immediately and then on every tick
// until ctx is done.
func (d *Periodic) Start(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		interval := d.Interval
		if interval <= 0 {
			interval = DefaultInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case out <- codec.EncodeCR(nil, d.Message):
			case <-ctx.Done():
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
