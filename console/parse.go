package console

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luhtfiimanal/go-serial-term/keys"
)

const (
	esc = 0x1b
	del = 0x7f

	// maxSequence bounds how far a CSI sequence is scanned for its final
	// byte before the bytes are discarded as garbage.
	maxSequence = 32
)

// Parser turns raw terminal input into key events. Partial escape
// sequences and partial UTF-8 runes are held until the rest arrives.
type Parser struct {
	buf []byte
}

// Pending reports whether bytes are held waiting for more input.
func (p *Parser) Pending() bool { return len(p.buf) > 0 }

// Feed parses as much of the buffered input as possible.
func (p *Parser) Feed(data []byte) []keys.Event {
	p.buf = append(p.buf, data...)

	var events []keys.Event
	i := 0
	for i < len(p.buf) {
		ev, n, ok := parseOne(p.buf[i:])
		if n == 0 {
			break // incomplete, wait for more data
		}
		if ok {
			events = append(events, ev)
		}
		i += n
	}
	p.compact(i)
	return events
}

// Flush is called once input has been idle for the escape timeout. A lone
// ESC becomes the Escape key; any other stale partial input is dropped.
func (p *Parser) Flush() []keys.Event {
	if len(p.buf) == 0 {
		return nil
	}
	var events []keys.Event
	if p.buf[0] == esc {
		events = append(events, keys.Key(keys.CodeEscape))
		if len(p.buf) > 1 {
			// ESC + partial: keep what follows the ESC for reparsing.
			rest := append([]byte(nil), p.buf[1:]...)
			p.buf = p.buf[:0]
			events = append(events, p.Feed(rest)...)
			if len(p.buf) > 0 && p.buf[0] != esc {
				p.buf = p.buf[:0]
			}
			return events
		}
	}
	p.buf = p.buf[:0]
	return events
}

func (p *Parser) compact(consumed int) {
	if consumed >= len(p.buf) {
		p.buf = p.buf[:0]
		return
	}
	copy(p.buf, p.buf[consumed:])
	p.buf = p.buf[:len(p.buf)-consumed]
}

// parseOne decodes the first event in data. n is the number of bytes
// consumed, zero when the input is incomplete. ok is false for consumed
// bytes that produce no event.
func parseOne(data []byte) (ev keys.Event, n int, ok bool) {
	b := data[0]
	switch {
	case b == esc:
		return parseEscape(data)
	case b == del:
		return keys.Key(keys.CodeBackspace), 1, true
	case b < 0x20:
		return control(b), 1, true
	case b < utf8.RuneSelf:
		return keys.Char(rune(b)), 1, true
	}

	if !utf8.FullRune(data) {
		return keys.Event{}, 0, false
	}
	r, size := utf8.DecodeRune(data)
	if r == utf8.RuneError && size == 1 {
		return keys.Event{}, 1, false
	}
	return keys.Char(r), size, true
}

// control maps a C0 byte to the event that Translate turns back into the
// same byte.
func control(b byte) keys.Event {
	switch b {
	case 0x00:
		return keys.Ctrl(' ')
	case 0x08:
		return keys.Key(keys.CodeBackspace)
	case 0x09:
		return keys.Key(keys.CodeTab)
	case 0x0a, 0x0d:
		return keys.Key(keys.CodeEnter)
	case esc:
		return keys.Key(keys.CodeEscape)
	}
	if b >= 0x1c {
		return keys.Ctrl(rune('4' + b - 0x1c))
	}
	return keys.Ctrl(rune('a' + b - 1))
}

func parseEscape(data []byte) (keys.Event, int, bool) {
	if len(data) < 2 {
		return keys.Event{}, 0, false
	}
	switch next := data[1]; {
	case next == '[':
		return parseCSI(data)
	case next == 'O':
		return parseSS3(data)
	case next == esc, next >= utf8.RuneSelf:
		// Escape pressed on its own, followed by more input.
		return keys.Key(keys.CodeEscape), 1, true
	case next == del:
		return keys.Key(keys.CodeBackspace).With(keys.ModAlt), 2, true
	case next < 0x20:
		return control(next).With(keys.ModAlt), 2, true
	default:
		return keys.Char(rune(next)).With(keys.ModAlt), 2, true
	}
}

func parseSS3(data []byte) (keys.Event, int, bool) {
	if len(data) < 3 {
		return keys.Event{}, 0, false
	}
	switch data[2] {
	case 'A':
		return keys.Key(keys.CodeUp), 3, true
	case 'B':
		return keys.Key(keys.CodeDown), 3, true
	case 'C':
		return keys.Key(keys.CodeRight), 3, true
	case 'D':
		return keys.Key(keys.CodeLeft), 3, true
	case 'H':
		return keys.Key(keys.CodeHome), 3, true
	case 'F':
		return keys.Key(keys.CodeEnd), 3, true
	case 'M':
		return keys.Key(keys.CodeEnter), 3, true
	case 'P', 'Q', 'R', 'S':
		return keys.Function(int(data[2]-'P') + 1), 3, true
	}
	return keys.Event{}, 3, false
}

// Function key numbers used by xterm in "ESC [ n ~".
var tildeKeys = map[int]keys.Event{
	1:  keys.Key(keys.CodeHome),
	2:  keys.Key(keys.CodeInsert),
	3:  keys.Key(keys.CodeDelete),
	4:  keys.Key(keys.CodeEnd),
	5:  keys.Key(keys.CodePageUp),
	6:  keys.Key(keys.CodePageDown),
	7:  keys.Key(keys.CodeHome),
	8:  keys.Key(keys.CodeEnd),
	11: keys.Function(1),
	12: keys.Function(2),
	13: keys.Function(3),
	14: keys.Function(4),
	15: keys.Function(5),
	17: keys.Function(6),
	18: keys.Function(7),
	19: keys.Function(8),
	20: keys.Function(9),
	21: keys.Function(10),
	23: keys.Function(11),
	24: keys.Function(12),
}

var finalKeys = map[byte]keys.Event{
	'A': keys.Key(keys.CodeUp),
	'B': keys.Key(keys.CodeDown),
	'C': keys.Key(keys.CodeRight),
	'D': keys.Key(keys.CodeLeft),
	'H': keys.Key(keys.CodeHome),
	'F': keys.Key(keys.CodeEnd),
	'P': keys.Function(1),
	'Q': keys.Function(2),
	'R': keys.Function(3),
	'S': keys.Function(4),
	'Z': keys.Key(keys.CodeTab).With(keys.ModShift),
}

func parseCSI(data []byte) (keys.Event, int, bool) {
	if len(data) < 3 {
		return keys.Event{}, 0, false
	}

	// Linux console F1-F5: ESC [ [ A..E
	if data[2] == '[' {
		if len(data) < 4 {
			return keys.Event{}, 0, false
		}
		if data[3] >= 'A' && data[3] <= 'E' {
			return keys.Function(int(data[3]-'A') + 1), 4, true
		}
		return keys.Event{}, 4, false
	}

	// X10 mouse report: ESC [ M Cb Cx Cy
	if data[2] == 'M' {
		if len(data) < 6 {
			return keys.Event{}, 0, false
		}
		return keys.Key(keys.CodeMouse), 6, true
	}

	end := 2
	for ; end < len(data) && end < maxSequence; end++ {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x3f {
			// Not a CSI byte: drop the introducer and reparse the rest.
			return keys.Event{}, end, false
		}
	}
	if end >= maxSequence {
		return keys.Event{}, end, false
	}
	if end >= len(data) {
		return keys.Event{}, 0, false
	}

	params := string(data[2:end])
	final := data[end]
	n := end + 1

	if strings.HasPrefix(params, "<") && (final == 'M' || final == 'm') {
		return keys.Key(keys.CodeMouse), n, true
	}
	if final == 't' && strings.HasPrefix(params, "8;") {
		return keys.Key(keys.CodeResize), n, true
	}

	fields := strings.Split(params, ";")
	var mods keys.Modifiers
	if len(fields) > 1 {
		mods = xtermModifiers(fields[1])
	}

	if final == '~' {
		num, err := strconv.Atoi(fields[0])
		if err != nil {
			return keys.Event{}, n, false
		}
		ev, ok := tildeKeys[num]
		if !ok {
			return keys.Event{}, n, false
		}
		return ev.With(mods), n, true
	}

	ev, ok := finalKeys[final]
	if !ok {
		// Focus reports and other unsolicited sequences.
		return keys.Event{}, n, false
	}
	return ev.With(mods), n, true
}

// xtermModifiers decodes the "1 + bitmask" modifier parameter.
func xtermModifiers(field string) keys.Modifiers {
	v, err := strconv.Atoi(field)
	if err != nil || v < 2 {
		return keys.ModNone
	}
	bits := v - 1
	var mods keys.Modifiers
	if bits&1 != 0 {
		mods |= keys.ModShift
	}
	if bits&(2|8) != 0 {
		mods |= keys.ModAlt
	}
	if bits&4 != 0 {
		mods |= keys.ModControl
	}
	return mods
}
