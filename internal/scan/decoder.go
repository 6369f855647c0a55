package scan

import (
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Detection is one decoded QR hit: the raw payload and the corner points of
// the code within the frame.
type Detection struct {
	Payload string
	Region  []image.Point
}

// Decoder extracts QR payloads from raw frames. A frame with no readable
// code is a miss, never an error. Not safe for concurrent use; the pipeline
// serializes calls.
type Decoder struct {
	reader gozxing.Reader
}

// NewDecoder creates a QR frame decoder.
func NewDecoder() *Decoder {
	return &Decoder{reader: qrcode.NewQRCodeReader()}
}

// Decode returns the payload and region of a QR code in img, or ok=false
// when none is found. The payload is opaque here; identity validation
// happens at directory lookup.
func (d *Decoder) Decode(img image.Image) (Detection, bool) {
	if img == nil {
		return Detection{}, false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Detection{}, false
	}
	result, err := d.reader.Decode(bmp, nil)
	if err != nil || result == nil {
		return Detection{}, false
	}
	payload := strings.TrimSpace(result.GetText())
	if payload == "" {
		return Detection{}, false
	}

	points := result.GetResultPoints()
	region := make([]image.Point, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		region = append(region, image.Pt(int(p.GetX()), int(p.GetY())))
	}
	return Detection{Payload: payload, Region: region}, true
}
