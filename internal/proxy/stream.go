package proxy

import "bytes"

// LineBuffer reassembles SSE lines from raw network chunks. The upstream
// connection may split a line anywhere, including inside a multi-byte UTF-8
// sequence, so accumulation happens on bytes and a line is only decoded once
// its terminating newline has arrived.
//
// A LineBuffer is owned by exactly one request's stream goroutine.
type LineBuffer struct {
	buf []byte
}

// Feed appends a chunk and returns every line completed by it, in arrival
// order. The trailing piece after the last newline (possibly empty) stays
// buffered until a later chunk or Flush completes it.
func (b *LineBuffer) Feed(chunk []byte) []string {
	b.buf = append(b.buf, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(b.buf, '\n')
		if idx < 0 {
			return lines
		}
		lines = append(lines, string(b.buf[:idx]))
		b.buf = b.buf[idx+1:]
	}
}

// Flush returns the unterminated final line at end of stream, if any.
func (b *LineBuffer) Flush() (string, bool) {
	if len(b.buf) == 0 {
		return "", false
	}
	line := string(b.buf)
	b.buf = nil
	return line, true
}
