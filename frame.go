package glimmer

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Protocol command bytes.
const (
	CmdSetPixelColors  = 0x00
	CmdSystemExclusive = 0xff
)

// ChannelBroadcast addresses every channel on the receiving server.
const ChannelBroadcast = 0

// MaxPixels is the largest pixel count that fits the 16-bit length field.
const MaxPixels = 0xffff / 3

const headerLen = 4

// Pixel is one LED color. No alpha, no color-space metadata; the server
// applies its own gamma and color correction.
type Pixel struct {
	R, G, B uint8
}

// Frame is one protocol message: a command addressed to a channel with an
// opaque payload. For CmdSetPixelColors the payload holds RGB triples in
// strip order, so pixel order is significant.
type Frame struct {
	Channel uint8
	Command uint8
	Data    []byte
}

// NewFrame returns an empty set-pixel-colors frame for the given channel.
func NewFrame(channel uint8) *Frame {
	return &Frame{Channel: channel, Command: CmdSetPixelColors}
}

// FrameFromPixels builds a set-pixel-colors frame from an ordered pixel
// slice. An empty slice is valid and blanks the channel.
func FrameFromPixels(channel uint8, pixels []Pixel) (*Frame, error) {
	f := NewFrame(channel)
	if err := f.SetPixels(pixels); err != nil {
		return nil, err
	}
	return f, nil
}

// SetPixelCount resizes the payload to hold n pixels, preserving existing
// color data where it fits.
func (f *Frame) SetPixelCount(n int) error {
	if n < 0 || n > MaxPixels {
		return fmt.Errorf("%w: %d pixels", ErrFrameTooLarge, n)
	}
	data := make([]byte, n*3)
	copy(data, f.Data)
	f.Data = data
	return nil
}

// PixelCount returns the number of whole RGB triples in the payload.
func (f *Frame) PixelCount() int { return len(f.Data) / 3 }

// SetPixel sets the color of pixel i. The payload must already cover i;
// grow it with SetPixelCount or SetPixels first.
func (f *Frame) SetPixel(i int, p Pixel) error {
	if i < 0 || i >= f.PixelCount() {
		return fmt.Errorf("glimmer: pixel index %d out of range [0,%d)", i, f.PixelCount())
	}
	f.Data[i*3+0] = p.R
	f.Data[i*3+1] = p.G
	f.Data[i*3+2] = p.B
	return nil
}

// SetPixels replaces the payload with the given ordered pixel slice.
func (f *Frame) SetPixels(pixels []Pixel) error {
	if len(pixels) > MaxPixels {
		return fmt.Errorf("%w: %d pixels", ErrFrameTooLarge, len(pixels))
	}
	data := make([]byte, len(pixels)*3)
	for i, p := range pixels {
		data[i*3+0] = p.R
		data[i*3+1] = p.G
		data[i*3+2] = p.B
	}
	f.Data = data
	return nil
}

// Pixels decodes the payload back into an ordered pixel slice. Trailing
// bytes of a malformed payload that do not form a whole triple are ignored.
func (f *Frame) Pixels() []Pixel {
	n := f.PixelCount()
	pixels := make([]Pixel, n)
	for i := range pixels {
		pixels[i] = Pixel{f.Data[i*3], f.Data[i*3+1], f.Data[i*3+2]}
	}
	return pixels
}

// Bytes serializes the frame: header then payload in one buffer, so a
// single Write hands the whole message to the transport.
func (f *Frame) Bytes() ([]byte, error) {
	if len(f.Data) > 0xffff {
		return nil, fmt.Errorf("%w: %d byte payload", ErrFrameTooLarge, len(f.Data))
	}
	buf := make([]byte, headerLen+len(f.Data))
	buf[0] = f.Channel
	buf[1] = f.Command
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(f.Data)))
	copy(buf[headerLen:], f.Data)
	return buf, nil
}

// ReadFrame reads one frame from r. It is the receiving half of the
// protocol: decoding a frame serialized by Bytes reproduces the original
// channel, command, and payload byte-exactly.
func ReadFrame(r io.Reader) (*Frame, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("glimmer: truncated header: %w", err)
		}
		return nil, err
	}
	length := binary.BigEndian.Uint16(hdr[2:4])
	f := &Frame{
		Channel: hdr[0],
		Command: hdr[1],
		Data:    make([]byte, length),
	}
	if _, err := io.ReadFull(r, f.Data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("glimmer: truncated payload: want %d bytes: %w", length, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	return f, nil
}
