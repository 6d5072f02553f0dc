package codec

import (
	"errors"
	"io"
)

const readSize = 4096

// Reader pulls frames from an underlying byte stream.
type Reader struct {
	src     io.Reader
	codec   LineCodec
	buf     []byte
	readErr error
	fatal   error

	// Resync skips lines that fail UTF-8 validation instead of stopping.
	// Each skipped line is reported to OnInvalid when it is set.
	Resync    bool
	OnInvalid func(error)
}

// NewReader returns a Reader decoding frames from src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src, buf: make([]byte, readSize)}
}

// Next returns the next frame in arrival order.
//
// Frames already buffered are returned before a read error surfaces. At a
// clean end of stream Next returns io.EOF, or ErrTrailingData when the
// stream stopped in the middle of a line. Without Resync, ErrInvalidEncoding
// is sticky: the reader cannot find the start of the next good line.
func (r *Reader) Next() (string, error) {
	if r.fatal != nil {
		return "", r.fatal
	}
	for {
		frame, err := r.codec.Decode()
		switch {
		case err == nil:
			return frame, nil
		case errors.Is(err, ErrInvalidEncoding):
			if r.Resync {
				if r.OnInvalid != nil {
					r.OnInvalid(err)
				}
				continue
			}
			r.fatal = err
			return "", err
		}

		if r.readErr != nil {
			if errors.Is(r.readErr, io.EOF) && r.codec.Pending() > 0 {
				r.readErr = ErrTrailingData
			}
			return "", r.readErr
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.codec.Feed(r.buf[:n])
		}
		if err != nil {
			r.readErr = err
		}
	}
}
