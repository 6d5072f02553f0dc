package keys

import "unicode/utf8"

const esc = 0x1b

var sequences = map[Code][]byte{
	CodeBackspace: {0x08},
	CodeEnter:     {'\r'},
	CodeTab:       {'\t'},
	CodeEscape:    {esc},
	CodeUp:        {esc, '[', 'A'},
	CodeDown:      {esc, '[', 'B'},
	CodeRight:     {esc, '[', 'C'},
	CodeLeft:      {esc, '[', 'D'},
	CodeHome:      {esc, '[', 'H'},
	CodeEnd:       {esc, '[', 'F'},
	CodeInsert:    {esc, '[', '2', '~'},
	CodeDelete:    {esc, '[', '3', '~'},
}

// Translate returns the bytes to send for e, or nil when the key has no
// remote representation (function keys, paging, mouse and resize events).
// A nil result is not an error; callers simply skip the event.
//
// The returned slice is freshly allocated and may be retained.
func Translate(e Event) []byte {
	if e.Code == CodeChar {
		return translateChar(e.Rune, e.Mods)
	}
	seq, ok := sequences[e.Code]
	if !ok {
		return nil
	}
	return append([]byte(nil), seq...)
}

func translateChar(r rune, mods Modifiers) []byte {
	if mods.Control() {
		switch {
		case r >= 'a' && r <= 'z', r == ' ':
			return []byte{byte(r) & 0x1f}
		case r >= '4' && r <= '7':
			// Ctrl-4..Ctrl-7 reach 0x1c..0x1f, which the letter rule cannot.
			return []byte{(byte(r) + 8) & 0x1f}
		}
		// Anything else is sent as the plain character.
	}
	if !utf8.ValidRune(r) {
		return nil
	}
	return utf8.AppendRune(nil, r)
}
