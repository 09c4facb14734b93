package socks

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadRequest(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     []byte
		want    Request
		wantErr error
	}{
		{
			name: "connect_no_userid",
			raw:  []byte{0x04, 0x01, 0x1F, 0x90, 127, 0, 0, 1, 0x00},
			want: Request{Cmd: CommandConnect, DstIP: [4]byte{127, 0, 0, 1}, DstPort: 0x1F90},
		},
		{
			name: "connect_with_userid",
			raw:  []byte{0x04, 0x01, 0x00, 0x50, 10, 1, 2, 3, 'b', 'o', 'b', 0x00},
			want: Request{Cmd: CommandConnect, DstIP: [4]byte{10, 1, 2, 3}, DstPort: 80, UserID: "bob"},
		},
		{
			name:    "socks5_version",
			raw:     []byte{0x05, 0x01, 0x00, 0x50, 10, 1, 2, 3, 0x00},
			wantErr: ErrBadVersion,
		},
		{
			name:    "bind_command",
			raw:     []byte{0x04, 0x02, 0x00, 0x50, 10, 1, 2, 3, 0x00},
			wantErr: ErrCommandNotSupported,
		},
		{
			name:    "oversized_userid",
			raw:     append([]byte{0x04, 0x01, 0x00, 0x50, 10, 1, 2, 3}, append(bytes.Repeat([]byte{'a'}, 300), 0x00)...),
			wantErr: ErrBadRequest,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ReadRequest(bytes.NewReader(tc.raw))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ReadRequest() = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadRequest() failed: %v", err)
			}

			if *got != tc.want {
				t.Errorf("request = %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestReadRequestTruncated(t *testing.T) {
	t.Parallel()

	// header cut short
	if _, err := ReadRequest(bytes.NewReader([]byte{0x04, 0x01, 0x00})); err == nil {
		t.Error("ReadRequest() on truncated header succeeded")
	}

	// userid never terminated
	raw := []byte{0x04, 0x01, 0x00, 0x50, 10, 1, 2, 3, 'x', 'y'}
	if _, err := ReadRequest(bytes.NewReader(raw)); err == nil {
		t.Error("ReadRequest() on unterminated user id succeeded")
	}
}

func TestWriteReply(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteReplyGranted(&buf, [4]byte{127, 0, 0, 1}, 8080); err != nil {
		t.Fatalf("WriteReplyGranted() failed: %v", err)
	}

	want := []byte{0x00, 90, 0x1F, 0x90, 127, 0, 0, 1}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("granted reply = %v, want %v", buf.Bytes(), want)
	}

	buf.Reset()
	if err := WriteReplyRejected(&buf); err != nil {
		t.Fatalf("WriteReplyRejected() failed: %v", err)
	}

	want = []byte{0x00, 91, 0x00, 0x00, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("rejected reply = %v, want %v", buf.Bytes(), want)
	}
}
