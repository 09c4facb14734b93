package log

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type memStream struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (m *memStream) Read(p []byte) (int, error)  { return m.in.Read(p) }
func (m *memStream) Write(p []byte) (int, error) { return m.out.Write(p) }
func (m *memStream) Close() error                { return nil }

func TestTranscriptRecordsBothDirections(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.log")

	inner := &memStream{
		in:  bytes.NewBufferString("from remote"),
		out: &bytes.Buffer{},
	}

	ts, err := NewTranscriptStream(inner, path)
	if err != nil {
		t.Fatalf("NewTranscriptStream() failed: %v", err)
	}

	if _, err := io.Copy(io.Discard, ts); err != nil {
		t.Fatalf("reading through transcript: %v", err)
	}
	if _, err := ts.Write([]byte(" and to remote")); err != nil {
		t.Fatalf("writing through transcript: %v", err)
	}
	ts.Close()

	recorded, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading transcript file: %v", err)
	}
	if string(recorded) != "from remote and to remote" {
		t.Errorf("transcript = %q", recorded)
	}

	if inner.out.String() != " and to remote" {
		t.Errorf("inner stream saw %q", inner.out.String())
	}
}
