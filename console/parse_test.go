package console

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/go-serial-term/keys"
)

func TestParser_Feed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []keys.Event
	}{
		{"printable", "hi", []keys.Event{keys.Char('h'), keys.Char('i')}},
		{"utf8", "é✓", []keys.Event{keys.Char('é'), keys.Char('✓')}},
		{"enter cr", "\r", []keys.Event{keys.Key(keys.CodeEnter)}},
		{"enter lf", "\n", []keys.Event{keys.Key(keys.CodeEnter)}},
		{"tab", "\t", []keys.Event{keys.Key(keys.CodeTab)}},
		{"backspace bs", "\x08", []keys.Event{keys.Key(keys.CodeBackspace)}},
		{"backspace del", "\x7f", []keys.Event{keys.Key(keys.CodeBackspace)}},
		{"ctrl letters", "\x01\x03\x1a", []keys.Event{keys.Ctrl('a'), keys.Ctrl('c'), keys.Ctrl('z')}},
		{"ctrl space", "\x00", []keys.Event{keys.Ctrl(' ')}},
		{"ctrl 4..7", "\x1c\x1d\x1e\x1f", []keys.Event{keys.Ctrl('4'), keys.Ctrl('5'), keys.Ctrl('6'), keys.Ctrl('7')}},
		{"arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []keys.Event{
			keys.Key(keys.CodeUp), keys.Key(keys.CodeDown), keys.Key(keys.CodeRight), keys.Key(keys.CodeLeft),
		}},
		{"ss3 arrows", "\x1bOA\x1bOH", []keys.Event{keys.Key(keys.CodeUp), keys.Key(keys.CodeHome)}},
		{"home end", "\x1b[H\x1b[F\x1b[1~\x1b[4~", []keys.Event{
			keys.Key(keys.CodeHome), keys.Key(keys.CodeEnd), keys.Key(keys.CodeHome), keys.Key(keys.CodeEnd),
		}},
		{"insert delete", "\x1b[2~\x1b[3~", []keys.Event{keys.Key(keys.CodeInsert), keys.Key(keys.CodeDelete)}},
		{"paging", "\x1b[5~\x1b[6~", []keys.Event{keys.Key(keys.CodePageUp), keys.Key(keys.CodePageDown)}},
		{"function keys", "\x1bOP\x1b[15~\x1b[24~\x1b[[A", []keys.Event{
			keys.Function(1), keys.Function(5), keys.Function(12), keys.Function(1),
		}},
		{"modified arrow", "\x1b[1;5A", []keys.Event{keys.Key(keys.CodeUp).With(keys.ModControl)}},
		{"modified delete", "\x1b[3;2~", []keys.Event{keys.Key(keys.CodeDelete).With(keys.ModShift)}},
		{"alt char", "\x1bx", []keys.Event{keys.Char('x').With(keys.ModAlt)}},
		{"sgr mouse", "\x1b[<0;10;5M", []keys.Event{keys.Key(keys.CodeMouse)}},
		{"x10 mouse", "\x1b[M !!", []keys.Event{keys.Key(keys.CodeMouse)}},
		{"resize report", "\x1b[8;24;80t", []keys.Event{keys.Key(keys.CodeResize)}},
		{"focus report dropped", "\x1b[Ia", []keys.Event{keys.Char('a')}},
		{"unknown tilde dropped", "\x1b[99~b", []keys.Event{keys.Char('b')}},
		{"double escape", "\x1b\x1b[A", []keys.Event{keys.Key(keys.CodeEscape), keys.Key(keys.CodeUp)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parser
			require.Equal(t, tt.want, p.Feed([]byte(tt.input)))
			require.False(t, p.Pending())
		})
	}
}

func TestParser_SplitSequence(t *testing.T) {
	var p Parser
	require.Empty(t, p.Feed([]byte("\x1b[")))
	require.True(t, p.Pending())
	require.Equal(t, []keys.Event{keys.Key(keys.CodeDelete)}, p.Feed([]byte("3~")))
	require.False(t, p.Pending())
}

func TestParser_SplitRune(t *testing.T) {
	var p Parser
	check := []byte("✓")
	require.Empty(t, p.Feed(check[:2]))
	require.Equal(t, []keys.Event{keys.Char('✓')}, p.Feed(check[2:]))
}

func TestParser_FlushLoneEscape(t *testing.T) {
	var p Parser
	require.Empty(t, p.Feed([]byte{0x1b}))
	require.Equal(t, []keys.Event{keys.Key(keys.CodeEscape)}, p.Flush())
	require.False(t, p.Pending())
	require.Nil(t, p.Flush())
}

func TestParser_FlushEscapeThenBracket(t *testing.T) {
	var p Parser
	require.Empty(t, p.Feed([]byte("\x1b[")))
	require.Equal(t, []keys.Event{keys.Key(keys.CodeEscape), keys.Char('[')}, p.Flush())
	require.False(t, p.Pending())
}

func TestParser_ControlRoundTrip(t *testing.T) {
	// Every C0 byte except ESC parses to an event that translates back to
	// the same byte, except LF which is reported as Enter (CR).
	for b := byte(0); b < 0x20; b++ {
		if b == 0x1b {
			continue
		}
		var p Parser
		events := p.Feed([]byte{b})
		require.Len(t, events, 1)

		want := []byte{b}
		if b == '\n' {
			want = []byte{'\r'}
		}
		require.Equal(t, want, keys.Translate(events[0]), "byte 0x%02x", b)
	}
}
