package pattern

import (
	"testing"

	glimmer "github.com/glimmerlights/glimmer-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasuringStickSixStrips(t *testing.T) {
	pixels := MeasuringStick(6, 120)
	require.Len(t, pixels, 720)

	gray := glimmer.Pixel{R: 128, G: 128, B: 128}
	green := glimmer.Pixel{R: 128, G: 255, B: 128}
	for s := 0; s < 6; s++ {
		for i := 0; i < 120; i++ {
			p := pixels[s*120+i]
			if i%10 == 0 {
				assert.Equal(t, green, p, "strip %d index %d", s, i)
			} else {
				assert.Equal(t, gray, p, "strip %d index %d", s, i)
			}
		}
	}
}

func TestGradientEndpoints(t *testing.T) {
	pixels, err := Gradient(10, "#000000", "#ffffff")
	require.NoError(t, err)
	require.Len(t, pixels, 10)
	assert.Equal(t, glimmer.Pixel{}, pixels[0])
	assert.Equal(t, glimmer.Pixel{R: 255, G: 255, B: 255}, pixels[9])
}

func TestGradientBadHex(t *testing.T) {
	_, err := Gradient(4, "nope", "#ffffff")
	assert.Error(t, err)
}

func TestRunnerIndexSweep(t *testing.T) {
	r := NewRunner(IndexSweep, 3)
	buf := make([]glimmer.Pixel, 3)

	for i := 0; i < 3; i++ {
		require.True(t, r.Step(buf), "step %d", i)
		for j := range buf {
			if j == i {
				assert.Equal(t, glimmer.Pixel{R: 255, G: 255, B: 255}, buf[j])
			} else {
				assert.Equal(t, glimmer.Pixel{}, buf[j])
			}
		}
	}
	assert.False(t, r.Step(buf), "sweep must end after n steps")
}

func TestRunnerRGBChannels(t *testing.T) {
	r := NewRunner(RGBChannels, 4)
	buf := make([]glimmer.Pixel, 4)

	want := []glimmer.Pixel{{R: 255}, {G: 255}, {B: 255}}
	for _, w := range want {
		require.True(t, r.Step(buf))
		for _, p := range buf {
			assert.Equal(t, w, p)
		}
	}
	assert.False(t, r.Step(buf))
}
