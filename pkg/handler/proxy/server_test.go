package proxy

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"revmux/pkg/log"
	"revmux/pkg/proto"
	"revmux/pkg/session"
)

// testRemote answers the target side of the wire: it completes the shell
// negotiation and then replies to proxy channel opens with the configured
// status byte, echoing relay data back with a marker prefix.
type testRemote struct {
	conn   net.Conn
	dec    *proto.Decoder
	status byte
}

func (r *testRemote) serve(t *testing.T) {
	for {
		f, err := r.dec.Next()
		if err != nil {
			return
		}

		switch f.Type {
		case proto.TypeOpen:
		case proto.TypeProxyConnect:
			reply := proto.Frame{Channel: f.Channel, Type: proto.TypeProxyReply, Payload: []byte{r.status}}
			if _, err := r.conn.Write(reply.Encode()); err != nil {
				return
			}
		case proto.TypeData:
			echo := append([]byte("echo:"), f.Payload...)
			back := proto.Frame{Channel: f.Channel, Type: proto.TypeData, Payload: echo}
			if _, err := r.conn.Write(back.Encode()); err != nil {
				return
			}
		case proto.TypeClose:
		default:
			t.Errorf("remote received unexpected frame %+v", f)
		}
	}
}

// startServer brings up a negotiated session and a SOCKS4 listener on a
// random local port, with the remote side behaving per status.
func startServer(t *testing.T, status byte) (*Server, *session.Session) {
	t.Helper()

	local, remoteConn := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		remoteConn.Close()
	})

	logger := log.NewLogger(false)
	sess := session.New(local, logger)

	go remoteConn.Write(proto.Frame{
		Channel: 1,
		Type:    proto.TypeOpen,
		Payload: proto.OpenPayload{Kind: proto.KindShell}.Encode(),
	}.Encode())

	if err := sess.Negotiate(); err != nil {
		t.Fatalf("Negotiate() failed: %v", err)
	}
	go sess.Run()
	t.Cleanup(func() { sess.Close() })

	remote := &testRemote{conn: remoteConn, dec: proto.NewDecoder(remoteConn), status: status}
	go remote.serve(t)

	srv, err := NewServer(Config{LocalHost: "127.0.0.1", LocalPort: 0, Logger: logger}, sess)
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx)

	return srv, sess
}

// connectRequest is a CONNECT to 10.1.2.3:8080 with an empty userid.
var connectRequest = []byte{0x04, 0x01, 0x1F, 0x90, 10, 1, 2, 3, 0x00}

func dialServer(t *testing.T, srv *Server) net.Conn {
	t.Helper()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dialing proxy listener: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestProxyGrantedAndRelays(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, proto.ProxyReplySuccess)
	conn := dialServer(t, srv)

	if _, err := conn.Write(connectRequest); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	want := []byte{0x00, 90, 0x1F, 0x90, 10, 1, 2, 3}
	if !bytes.Equal(reply, want) {
		t.Fatalf("reply = %v, want %v", reply, want)
	}

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("writing relay data: %v", err)
	}

	echoed := make([]byte, len("echo:ping"))
	if _, err := io.ReadFull(conn, echoed); err != nil {
		t.Fatalf("reading relay data: %v", err)
	}
	if string(echoed) != "echo:ping" {
		t.Errorf("relayed %q, want %q", echoed, "echo:ping")
	}
}

func TestProxyRejectedByRemote(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, 0x01)
	conn := dialServer(t, srv)

	if _, err := conn.Write(connectRequest); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if reply[0] != 0x00 || reply[1] != 91 {
		t.Errorf("reply header = [%d %d], want [0 91]", reply[0], reply[1])
	}

	// after the rejection the listener hangs up
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("Read() after rejection = %v, want io.EOF", err)
	}
}

func TestProxyRejectsBadVersion(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, proto.ProxyReplySuccess)
	conn := dialServer(t, srv)

	bad := append([]byte{}, connectRequest...)
	bad[0] = 0x05
	if _, err := conn.Write(bad); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if reply[1] != 91 {
		t.Errorf("reply code = %d, want 91", reply[1])
	}
}

func TestProxyRejectsOversizedUserID(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, proto.ProxyReplySuccess)
	conn := dialServer(t, srv)

	// a connected but malformed client still gets a rejection reply; 256
	// userid bytes is one past the limit and exactly what the parser consumes
	req := append([]byte{0x04, 0x01, 0x1F, 0x90, 10, 1, 2, 3}, bytes.Repeat([]byte{'u'}, 256)...)
	if _, err := conn.Write(req); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if reply[0] != 0x00 || reply[1] != 91 {
		t.Errorf("reply header = [%d %d], want [0 91]", reply[0], reply[1])
	}
}

func TestProxyRejectsBindCommand(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, proto.ProxyReplySuccess)
	conn := dialServer(t, srv)

	bind := append([]byte{}, connectRequest...)
	bind[1] = 0x02
	if _, err := conn.Write(bind); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if reply[1] != 91 {
		t.Errorf("reply code = %d, want 91", reply[1])
	}
}

func TestListenerStopsWithSession(t *testing.T) {
	t.Parallel()

	srv, sess := startServer(t, proto.ProxyReplySuccess)
	sess.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := net.Dial("tcp", srv.Addr().String()); err != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("listener still accepting after session close")
}
