package proto

import (
	"fmt"
	"io"
)

// Decoder reads frames incrementally from a byte stream. It keeps an
// internal buffer so that a frame split across several reads is assembled
// without ever misinterpreting a partial header as malformed input.
type Decoder struct {
	r   io.Reader
	buf []byte

	tmp [4096]byte
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next returns the next complete frame from the stream. It blocks on the
// underlying reader until enough bytes accumulate. Errors from the reader
// are returned as-is; decode errors indicate lost stream synchronization
// and are fatal to the session.
func (d *Decoder) Next() (Frame, error) {
	for {
		f, n, err := Decode(d.buf)
		if err == nil {
			d.buf = d.buf[:copy(d.buf, d.buf[n:])]
			return f, nil
		}
		if err != ErrShortBuffer {
			return Frame{}, err
		}

		n, rerr := d.r.Read(d.tmp[:])
		if n > 0 {
			d.buf = append(d.buf, d.tmp[:n]...)
			continue
		}
		if rerr != nil {
			if rerr == io.EOF && len(d.buf) > 0 {
				return Frame{}, fmt.Errorf("stream ended mid-frame: %w", io.ErrUnexpectedEOF)
			}
			return Frame{}, rerr
		}
	}
}
