package glimmer_test

import (
	"net"
	"testing"
	"time"

	. "github.com/glimmerlights/glimmer-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer accepts one connection and hands every received frame to the
// caller over a channel.
type testServer struct {
	ln     net.Listener
	frames chan *Frame
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &testServer{ln: ln, frames: make(chan *Frame, 16)}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			f, err := ReadFrame(conn)
			if err != nil {
				return
			}
			s.frames <- f
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *testServer) addr() string { return s.ln.Addr().String() }

func (s *testServer) next(t *testing.T) *Frame {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestSendNeverConnected(t *testing.T) {
	c := NewClient()
	err := c.SendFrame(0, []Pixel{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectRefused(t *testing.T) {
	// Grab a port and close it again so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewClient(WithDialTimeout(time.Second))
	err = c.Connect("tcp", addr)
	assert.Error(t, err)
	assert.False(t, c.Connected())
}

func TestSendFrameDelivers(t *testing.T) {
	srv := newTestServer(t)
	c, err := Dial(srv.addr(), WithWriteTimeout(time.Second))
	require.NoError(t, err)
	defer c.Close()

	pixels := []Pixel{{10, 20, 30}, {40, 50, 60}}
	require.NoError(t, c.SendFrame(2, pixels))

	f := srv.next(t)
	assert.Equal(t, uint8(2), f.Channel)
	assert.Equal(t, uint8(CmdSetPixelColors), f.Command)
	assert.Equal(t, pixels, f.Pixels())
}

func TestSendFrameBlankChannel(t *testing.T) {
	srv := newTestServer(t)
	c, err := Dial(srv.addr())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendFrame(1, nil))
	f := srv.next(t)
	assert.Equal(t, uint8(1), f.Channel)
	assert.Empty(t, f.Data)
}

var TestInvalidChannels = []int{-1, 256, 1000, -256}

func TestSendFrameInvalidChannel(t *testing.T) {
	srv := newTestServer(t)
	c, err := Dial(srv.addr())
	require.NoError(t, err)
	defer c.Close()

	for _, ch := range TestInvalidChannels {
		err := c.SendFrame(ch, []Pixel{{1, 1, 1}})
		assert.ErrorIs(t, err, ErrInvalidChannel, "channel %d", ch)
	}

	// Nothing was transmitted for the bad channels: the next valid frame
	// is the first the server sees.
	require.NoError(t, c.SendFrame(5, nil))
	f := srv.next(t)
	assert.Equal(t, uint8(5), f.Channel)
	assert.Empty(t, srv.frames)
}

func TestSendAfterClose(t *testing.T) {
	srv := newTestServer(t)
	c, err := Dial(srv.addr())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	err = c.SendFrame(0, []Pixel{{1, 1, 1}})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, c.Close(), "closing twice is a no-op")
}

func TestBestEffortSwallowsSendFailures(t *testing.T) {
	c := NewClient(WithBestEffort())

	assert.NoError(t, c.SendFrame(0, []Pixel{{1, 1, 1}}))
	assert.NoError(t, c.SendFrame(0, nil))
	assert.Equal(t, uint64(2), c.Dropped())
	assert.ErrorIs(t, c.LastErr(), ErrNotConnected)

	// Validation failures still surface: the frame was never buildable.
	err := c.SendFrame(300, []Pixel{{1, 1, 1}})
	assert.ErrorIs(t, err, ErrInvalidChannel)
	assert.Equal(t, uint64(2), c.Dropped())
}

func TestSendRawSysEx(t *testing.T) {
	srv := newTestServer(t)
	c, err := Dial(srv.addr())
	require.NoError(t, err)
	defer c.Close()

	f := &Frame{Channel: 0, Command: CmdSystemExclusive, Data: []byte{0x00, 0x01, 'K'}}
	require.NoError(t, c.Send(f))

	got := srv.next(t)
	assert.Equal(t, uint8(CmdSystemExclusive), got.Command)
	assert.Equal(t, f.Data, got.Data)
}

func TestReconnectReplacesConnection(t *testing.T) {
	srv1 := newTestServer(t)
	srv2 := newTestServer(t)

	c, err := Dial(srv1.addr())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SendFrame(1, nil))
	srv1.next(t)

	require.NoError(t, c.Connect("tcp", srv2.addr()))
	require.NoError(t, c.SendFrame(2, nil))
	f := srv2.next(t)
	assert.Equal(t, uint8(2), f.Channel)
}
