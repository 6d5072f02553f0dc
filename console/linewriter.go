package console

import (
	"bytes"
	"io"
)

// LineWriter rewrites "\n" as "\r\n". Raw mode disables output
// post-processing, so log lines written to the tty need the carriage
// return added explicitly.
type LineWriter struct {
	W io.Writer
}

// Write writes p with bare line feeds expanded to CR LF. It reports
// len(p) on success.
func (w LineWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return w.W.Write(p)
	}
	out := make([]byte, 0, len(p)+8)
	for i, b := range p {
		if b == '\n' && (i == 0 || p[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	if _, err := w.W.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
