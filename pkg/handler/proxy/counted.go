package proxy

import (
	"io"
	"sync/atomic"
)

// countedStream wraps a relay stream with per-direction byte counters.
// "Out" is traffic sent towards the remote target, "in" traffic received
// from it.
type countedStream struct {
	inner io.ReadWriteCloser

	in  atomic.Int64
	out atomic.Int64
}

func (c *countedStream) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	c.in.Add(int64(n))
	return n, err
}

func (c *countedStream) Write(p []byte) (int, error) {
	n, err := c.inner.Write(p)
	c.out.Add(int64(n))
	return n, err
}

func (c *countedStream) Close() error {
	return c.inner.Close()
}

func (c *countedStream) BytesIn() int64  { return c.in.Load() }
func (c *countedStream) BytesOut() int64 { return c.out.Load() }
