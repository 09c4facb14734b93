package log

import (
	"fmt"
	"io"
	"os"
)

// transcriptStream wraps a byte stream and appends everything read from
// and written to it to a transcript file.
type transcriptStream struct {
	rwc  io.ReadWriteCloser
	file *os.File
}

// NewTranscriptStream wraps rwc so that all traffic is also appended to
// the file at path. The file is created if it does not exist.
func NewTranscriptStream(rwc io.ReadWriteCloser, path string) (io.ReadWriteCloser, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening transcript file %s: %s", path, err)
	}

	return &transcriptStream{rwc: rwc, file: file}, nil
}

func (ts *transcriptStream) Read(b []byte) (int, error) {
	n, err := ts.rwc.Read(b)
	if n > 0 {
		if _, werr := ts.file.Write(b[:n]); werr != nil {
			return n, fmt.Errorf("recording read: %s", werr)
		}
	}
	return n, err
}

func (ts *transcriptStream) Write(b []byte) (int, error) {
	n, err := ts.rwc.Write(b)
	if n > 0 {
		if _, werr := ts.file.Write(b[:n]); werr != nil {
			return n, fmt.Errorf("recording write: %s", werr)
		}
	}
	return n, err
}

func (ts *transcriptStream) Close() error {
	ts.file.Close() // best effort
	return ts.rwc.Close()
}
