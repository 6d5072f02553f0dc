// Package codec frames a raw serial byte stream into newline-terminated
// UTF-8 text lines and encodes lines back into bytes.
package codec

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

var (
	// ErrIncomplete means no line feed is buffered yet. Nothing was
	// consumed; feed more bytes and decode again.
	ErrIncomplete = errors.New("codec: incomplete frame")

	// ErrInvalidEncoding means a complete line was not valid UTF-8. The
	// line has been removed from the pending buffer.
	ErrInvalidEncoding = errors.New("codec: invalid UTF-8 in frame")

	// ErrTrailingData means the stream ended inside an unterminated line.
	ErrTrailingData = errors.New("codec: stream ended with unterminated frame")
)

const lineFeed = '\n'

// LineCodec is a stateful line decoder. The zero value is ready to use.
// A LineCodec is not safe for concurrent use; it belongs to the single
// reader of a connection.
type LineCodec struct {
	pending []byte
}

// Feed appends p to the pending buffer.
func (c *LineCodec) Feed(p []byte) {
	c.pending = append(c.pending, p...)
}

// Pending reports how many bytes are buffered without a terminator.
func (c *LineCodec) Pending() int { return len(c.pending) }

// Decode extracts the first complete line, including its line feed.
//
// The line is split at a single-byte terminator, so a multi-byte UTF-8
// sequence can never straddle two frames.
func (c *LineCodec) Decode() (string, error) {
	n := bytes.IndexByte(c.pending, lineFeed)
	if n < 0 {
		return "", ErrIncomplete
	}
	line := c.pending[:n+1]
	c.pending = c.pending[n+1:]
	if len(c.pending) == 0 {
		c.pending = c.pending[:0:0]
	}
	if !utf8.Valid(line) {
		return "", ErrInvalidEncoding
	}
	return string(line), nil
}

// Encode appends line and one line feed to dst. The content is not
// validated.
func Encode(dst []byte, line string) []byte {
	dst = append(dst, line...)
	return append(dst, lineFeed)
}

// EncodeCR appends line terminated by "\r\n", the form most remote line
// editors expect.
func EncodeCR(dst []byte, line string) []byte {
	return Encode(dst, line+"\r")
}
