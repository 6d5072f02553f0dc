// Package keys describes keyboard events and translates them into the byte
// sequences a remote VT100-style terminal expects.
package keys

import (
	"strconv"
	"strings"
)

// Code identifies a key.
type Code uint8

const (
	CodeNone Code = iota // no key; never translated
	CodeChar             // printable character, see Event.Rune

	CodeBackspace // sent as BS (0x08)
	CodeEnter     // sent as CR
	CodeTab       // sent as HT
	CodeEscape    // sent as ESC

	// Navigation
	CodeUp       // cursor up, ESC [ A
	CodeDown     // cursor down, ESC [ B
	CodeRight    // cursor right, ESC [ C
	CodeLeft     // cursor left, ESC [ D
	CodeHome     // ESC [ H
	CodeEnd      // ESC [ F
	CodeInsert   // ESC [ 2 ~
	CodeDelete   // ESC [ 3 ~
	CodePageUp   // not sent
	CodePageDown // not sent

	CodeFunction // F1..F12, see Event.Fn; not sent
	CodeMouse    // mouse report; not sent
	CodeResize   // window size report; not sent
)

var codeNames = [...]string{
	CodeNone:      "None",
	CodeChar:      "Char",
	CodeBackspace: "Backspace",
	CodeEnter:     "Enter",
	CodeTab:       "Tab",
	CodeEscape:    "Escape",
	CodeUp:        "Up",
	CodeDown:      "Down",
	CodeRight:     "Right",
	CodeLeft:      "Left",
	CodeHome:      "Home",
	CodeEnd:       "End",
	CodeInsert:    "Insert",
	CodeDelete:    "Delete",
	CodePageUp:    "PageUp",
	CodePageDown:  "PageDown",
	CodeFunction:  "Function",
	CodeMouse:     "Mouse",
	CodeResize:    "Resize",
}

// String returns the key name, e.g. "Up".
func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "Unknown"
}

// Modifiers is a set of modifier keys held during an event.
type Modifiers uint8

// Modifier flags. ModNone is the empty set.
const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModControl

	ModNone Modifiers = 0
)

// Has reports whether every modifier in m is held.
func (s Modifiers) Has(m Modifiers) bool { return s&m == m }

// Shift reports whether Shift is held.
func (s Modifiers) Shift() bool { return s.Has(ModShift) }

// Alt reports whether Alt (or Meta) is held.
func (s Modifiers) Alt() bool { return s.Has(ModAlt) }

// Control reports whether Control is held.
func (s Modifiers) Control() bool { return s.Has(ModControl) }

// String returns the held modifiers joined by "+", or "None".
func (s Modifiers) String() string {
	if s == ModNone {
		return "None"
	}
	var parts []string
	if s.Control() {
		parts = append(parts, "Ctrl")
	}
	if s.Alt() {
		parts = append(parts, "Alt")
	}
	if s.Shift() {
		parts = append(parts, "Shift")
	}
	return strings.Join(parts, "+")
}

// Event is a single key press.
type Event struct {
	Code Code
	Rune rune // for CodeChar
	Fn   int  // 1-based, for CodeFunction
	Mods Modifiers
}

// Key returns an unmodified event for a non-character key.
func Key(code Code) Event { return Event{Code: code} }

// Char returns an unmodified character event.
func Char(r rune) Event { return Event{Code: CodeChar, Rune: r} }

// Ctrl returns a character event with the Control modifier held.
func Ctrl(r rune) Event { return Event{Code: CodeChar, Rune: r, Mods: ModControl} }

// Function returns an event for function key Fn.
func Function(n int) Event { return Event{Code: CodeFunction, Fn: n} }

// With returns a copy of e with mods added.
func (e Event) With(mods Modifiers) Event {
	e.Mods |= mods
	return e
}

// String renders the event as e.g. "Ctrl+'a'" or "F5".
func (e Event) String() string {
	var name string
	switch e.Code {
	case CodeChar:
		name = "'" + string(e.Rune) + "'"
	case CodeFunction:
		name = "F" + strconv.Itoa(e.Fn)
	default:
		name = e.Code.String()
	}
	if e.Mods == ModNone {
		return name
	}
	return e.Mods.String() + "+" + name
}
