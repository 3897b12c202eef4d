// Package sim implements the receiving side of the pixel protocol: a TCP
// server that decodes frames and fans the RGB payloads out to registered
// sinks. It stands in for a Glimmer controller during development.
package sim

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	glimmer "github.com/glimmerlights/glimmer-go"
)

// Sink consumes one decoded frame payload. len(rgb) is always 3*N.
type Sink interface {
	Write(rgb []byte) error
}

// ChannelObserver is the pseudo-channel for sinks that want every frame
// regardless of its channel byte.
const ChannelObserver = 0

// Server accepts protocol connections and routes frames to sinks by
// channel. A frame on channel 0 reaches every sink; sinks registered on
// channel 0 observe all traffic.
type Server struct {
	mu    sync.Mutex
	sinks map[uint8][]Sink

	frames uint64
}

func NewServer() *Server {
	return &Server{sinks: map[uint8][]Sink{}}
}

// Register attaches a sink to a channel. Registering on ChannelObserver
// subscribes the sink to every channel.
func (s *Server) Register(channel uint8, sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks[channel] = append(s.sinks[channel], sink)
}

// Frames returns the number of set-pixel-colors frames dispatched so far.
func (s *Server) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Serve accepts connections on ln until it is closed, handling each
// connection on its own goroutine.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	for {
		f, err := glimmer.ReadFrame(conn)
		if err != nil {
			if err != io.EOF {
				log.Warn().Err(err).Str("remote", remote).Msg("read failed")
			} else {
				log.Info().Str("remote", remote).Msg("client disconnected")
			}
			return
		}
		switch f.Command {
		case glimmer.CmdSetPixelColors:
			s.Dispatch(f)
		case glimmer.CmdSystemExclusive:
			log.Debug().Str("remote", remote).Int("bytes", len(f.Data)).Msg("sysex ignored")
		default:
			log.Debug().Str("remote", remote).Uint8("command", f.Command).Msg("unknown command")
		}
	}
}

// Dispatch routes one set-pixel-colors frame to its sinks.
func (s *Server) Dispatch(f *glimmer.Frame) {
	s.mu.Lock()
	s.frames++
	var targets []Sink
	if f.Channel == glimmer.ChannelBroadcast {
		for _, sinks := range s.sinks {
			targets = append(targets, sinks...)
		}
	} else {
		targets = append(targets, s.sinks[f.Channel]...)
		targets = append(targets, s.sinks[ChannelObserver]...)
	}
	s.mu.Unlock()

	for _, sink := range targets {
		if err := sink.Write(f.Data); err != nil {
			log.Warn().Err(err).Uint8("channel", f.Channel).Msg("sink write failed")
		}
	}
}
