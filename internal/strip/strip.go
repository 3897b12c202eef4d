// Package strip renders received frames to a physical LED strip driven
// over SPI, with a terminal fallback when no SPI port is present.
package strip

import (
	"fmt"
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// DefaultSpeedHz suits the 3x-expand NRZ encoding of WS281x over SPI.
const DefaultSpeedHz = 2_400_000

// Device writes RGB frames to a display.Drawer, either an NRZ LED strip
// on an SPI port or periph's ANSI terminal screen.
type Device struct {
	drawer display.Drawer
	img    *image.NRGBA
	n      int
	SPI    bool
}

// Open initializes the host, opens the named SPI port (empty means the
// first available) and binds an n-pixel strip to it. When no SPI port can
// be opened the device falls back to drawing on the terminal.
func Open(dev string, n, speedHz int) (*Device, error) {
	if n <= 0 {
		return nil, fmt.Errorf("strip: invalid LED count %d", n)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("strip: host init: %w", err)
	}
	if speedHz <= 0 {
		speedHz = DefaultSpeedHz
	}

	port, err := spireg.Open(dev)
	if err != nil {
		log.Warn().Err(err).Str("dev", dev).Msg("no SPI port, falling back to terminal")
		return New(screen1d.New(&screen1d.Opts{X: n}), n), nil
	}
	d, err := newNRZ(port, n, speedHz)
	if err != nil {
		port.Close()
		return nil, err
	}
	d.SPI = true
	return d, nil
}

func newNRZ(port spi.Port, n, speedHz int) (*Device, error) {
	opts := nrzled.Opts{
		NumPixels: n,
		Channels:  3,
		Freq:      physic.Frequency(speedHz) * physic.Hertz,
	}
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("strip: %w", err)
	}
	return New(dev, n), nil
}

// New binds a device to an existing drawer. Used directly by tests with a
// playback SPI port.
func New(drawer display.Drawer, n int) *Device {
	return &Device{
		drawer: drawer,
		img:    image.NewNRGBA(image.Rect(0, 0, n, 1)),
		n:      n,
	}
}

// Write renders one frame. A payload shorter than the strip leaves the
// tail black; a longer one is cropped to the strip length.
func (d *Device) Write(rgb []byte) error {
	n := len(rgb) / 3
	if n > d.n {
		n = d.n
	}
	for i := 0; i < d.n; i++ {
		c := color.NRGBA{A: 0xff}
		if i < n {
			c.R, c.G, c.B = rgb[i*3], rgb[i*3+1], rgb[i*3+2]
		}
		d.img.SetNRGBA(i, 0, c)
	}
	return d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{})
}

// Close blanks the strip.
func (d *Device) Close() error {
	return d.drawer.Halt()
}
