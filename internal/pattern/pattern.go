// Package pattern generates the demo and calibration frames the tools
// send. Patterns are plain pixel slices; the client does not know or care
// how a frame was produced.
package pattern

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	glimmer "github.com/glimmerlights/glimmer-go"
)

// MeasuringStick lights every LED gray with every multiple of 10 within
// each strip lit green, making strip lengths easy to count by eye.
func MeasuringStick(strips, ledsPerStrip int) []glimmer.Pixel {
	strip := make([]glimmer.Pixel, ledsPerStrip)
	for i := range strip {
		if i%10 == 0 {
			strip[i] = glimmer.Pixel{R: 128, G: 255, B: 128}
		} else {
			strip[i] = glimmer.Pixel{R: 128, G: 128, B: 128}
		}
	}
	pixels := make([]glimmer.Pixel, 0, strips*ledsPerStrip)
	for s := 0; s < strips; s++ {
		pixels = append(pixels, strip...)
	}
	return pixels
}

// Gradient blends between two hex colors in Lab space across n pixels.
func Gradient(n int, fromHex, toHex string) ([]glimmer.Pixel, error) {
	from, err := colorful.Hex(fromHex)
	if err != nil {
		return nil, fmt.Errorf("pattern: %q: %w", fromHex, err)
	}
	to, err := colorful.Hex(toHex)
	if err != nil {
		return nil, fmt.Errorf("pattern: %q: %w", toHex, err)
	}
	pixels := make([]glimmer.Pixel, n)
	for i := range pixels {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		r, g, b := from.BlendLab(to, t).Clamped().RGB255()
		pixels[i] = glimmer.Pixel{R: r, G: g, B: b}
	}
	return pixels, nil
}

// Kind selects a calibration sequence.
type Kind string

const (
	IndexSweep  Kind = "index_sweep"  // one white pixel walks the strip
	RGBChannels Kind = "rgb_channels" // all red, then green, then blue
)

// Runner steps through a calibration sequence one frame at a time.
type Runner struct {
	kind Kind
	n    int
	step int
}

func NewRunner(kind Kind, n int) *Runner {
	return &Runner{kind: kind, n: n}
}

// Step fills pixels with the next frame; it returns false once the
// sequence is complete.
func (r *Runner) Step(pixels []glimmer.Pixel) bool {
	for i := range pixels {
		pixels[i] = glimmer.Pixel{}
	}
	switch r.kind {
	case IndexSweep:
		if r.step >= r.n {
			return false
		}
		if r.step < len(pixels) {
			pixels[r.step] = glimmer.Pixel{R: 255, G: 255, B: 255}
		}
	case RGBChannels:
		if r.step >= 3 {
			return false
		}
		for i := range pixels {
			switch r.step {
			case 0:
				pixels[i].R = 255
			case 1:
				pixels[i].G = 255
			case 2:
				pixels[i].B = 255
			}
		}
	default:
		return false
	}
	r.step++
	return true
}
