package scan

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	qrgen "github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrFrame(t *testing.T, payload string) image.Image {
	t.Helper()
	qr, err := qrgen.New(payload, qrgen.Medium)
	require.NoError(t, err)
	return qr.Image(256)
}

func TestDecoder_RoundTrip(t *testing.T) {
	d := NewDecoder()

	det, ok := d.Decode(qrFrame(t, "101_Asha"))
	require.True(t, ok)
	assert.Equal(t, "101_Asha", det.Payload)
	assert.NotEmpty(t, det.Region)
}

func TestDecoder_TrimsPayloadWhitespace(t *testing.T) {
	d := NewDecoder()

	det, ok := d.Decode(qrFrame(t, "  42_Ravi  "))
	require.True(t, ok)
	assert.Equal(t, "42_Ravi", det.Payload)
}

func TestDecoder_MissOnBlankFrame(t *testing.T) {
	d := NewDecoder()

	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			frame.Set(x, y, color.Gray{Y: 128})
		}
	}
	_, ok := d.Decode(frame)
	assert.False(t, ok)
}

func TestDecoder_MissOnNoiseFrame(t *testing.T) {
	d := NewDecoder()
	rng := rand.New(rand.NewSource(1))

	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			frame.Set(x, y, color.Gray{Y: uint8(rng.Intn(256))})
		}
	}
	_, ok := d.Decode(frame)
	assert.False(t, ok)
}

func TestDecoder_MissOnNilFrame(t *testing.T) {
	d := NewDecoder()
	_, ok := d.Decode(nil)
	assert.False(t, ok)
}
