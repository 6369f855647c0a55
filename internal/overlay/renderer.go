// Package overlay projects scan feedback onto video frames. Rendering is a
// pure function of its inputs: the frame is copied, never mutated, and no
// pipeline state is touched.
package overlay

import (
	"image"

	"github.com/fogleman/gg"

	"qrattend/internal/ledger"
)

// Badge is the drawable view of a resolved scan: the outcome plus the user
// snapshot fields, if the identity resolved.
type Badge struct {
	Kind       ledger.OutcomeKind
	Name       string
	RollNumber string
	Branch     string
	Thumbnail  image.Image
}

// Render returns a copy of frame annotated with the QR bounding outline (if
// region is non-empty) and, when badge is non-nil, a colored status bar and
// user panel. All geometry scales with frame width so the overlay looks the
// same at 640p and 1080p.
func Render(frame image.Image, region []image.Point, badge *Badge) image.Image {
	dc := gg.NewContextForImage(frame)
	w := float64(dc.Width())

	if len(region) >= 2 {
		drawRegion(dc, region, w)
	}
	if badge != nil {
		drawBadge(dc, badge, w)
	}
	return dc.Image()
}

func drawRegion(dc *gg.Context, region []image.Point, w float64) {
	dc.SetRGB(0, 0.8, 0)
	dc.SetLineWidth(maxf(2, w*0.004))
	for i, p := range region {
		next := region[(i+1)%len(region)]
		dc.DrawLine(float64(p.X), float64(p.Y), float64(next.X), float64(next.Y))
	}
	dc.Stroke()
}

func drawBadge(dc *gg.Context, badge *Badge, w float64) {
	margin := w * 0.02
	barH := maxf(24, w*0.055)
	radius := barH * 0.25

	r, g, b := statusColor(badge.Kind)
	dc.SetRGBA(r, g, b, 0.92)
	dc.DrawRoundedRectangle(margin, margin, w-2*margin, barH, radius)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(statusLabel(badge.Kind), margin+barH*0.5, margin+barH/2, 0, 0.35)

	if badge.Name == "" && badge.RollNumber == "" && badge.Branch == "" {
		return
	}

	panelY := margin + barH + margin*0.5
	panelH := maxf(60, w*0.14)
	dc.SetRGBA(0, 0, 0, 0.65)
	dc.DrawRoundedRectangle(margin, panelY, w-2*margin, panelH, radius)
	dc.Fill()

	textW := w - 2*margin
	if badge.Thumbnail != nil {
		thumbW := drawThumbnail(dc, badge.Thumbnail, w-margin, panelY, panelH)
		textW -= thumbW + margin
	}

	dc.SetRGB(1, 1, 1)
	text := "Name: " + badge.Name + "\nRoll Number: " + badge.RollNumber + "\nBranch: " + badge.Branch
	dc.DrawStringWrapped(text, margin+barH*0.5, panelY+panelH*0.1, 0, 0,
		textW-barH, 1.4, gg.AlignLeft)
}

// drawThumbnail draws img right-aligned at x, scaled to the panel height,
// and returns the scaled width.
func drawThumbnail(dc *gg.Context, img image.Image, right, y, panelH float64) float64 {
	bounds := img.Bounds()
	if bounds.Dy() == 0 {
		return 0
	}
	inset := panelH * 0.08
	scale := (panelH - 2*inset) / float64(bounds.Dy())
	scaledW := float64(bounds.Dx()) * scale

	dc.Push()
	dc.Translate(right-scaledW-inset, y+inset)
	dc.Scale(scale, scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
	return scaledW
}

func statusLabel(kind ledger.OutcomeKind) string {
	switch kind {
	case ledger.OutcomeSuccess:
		return "Attendance marked"
	case ledger.OutcomeDuplicate:
		return "Already marked today"
	case ledger.OutcomeNotFound:
		return "Unknown code"
	case ledger.OutcomeWriteFailed:
		return "Save failed, scan again"
	default:
		return ""
	}
}

func statusColor(kind ledger.OutcomeKind) (r, g, b float64) {
	switch kind {
	case ledger.OutcomeSuccess:
		return 0.18, 0.49, 0.20 // green
	case ledger.OutcomeDuplicate:
		return 1.00, 0.56, 0.00 // amber
	default:
		return 0.78, 0.16, 0.16 // red
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
