package vision

import (
	"image"
	"image/color"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// BoxColor is the colour of boxes and captions drawn around target detections.
var BoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

const (
	boxThickness = 3
	captionSize  = 18
	captionGap   = 10
)

// Overlay draws boxes and captions onto frames.
type Overlay struct {
	caption string
	font    *truetype.Font
}

// NewOverlay returns an Overlay whose caption is derived from the target
// label, e.g. "ambulance" becomes "Ambulance Detected".
func NewOverlay(target string) (*Overlay, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse caption font")
	}
	return &Overlay{
		caption: Caption(target),
		font:    f,
	}, nil
}

// Caption builds the text drawn above a target box.
func Caption(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return "Detected"
	}
	r, size := utf8.DecodeRuneInString(target)
	return string(unicode.ToUpper(r)) + strings.ToLower(target[size:]) + " Detected"
}

// Text returns the caption this overlay draws.
func (o *Overlay) Text() string {
	return o.caption
}

// Draw returns a copy of img with every detection boxed and captioned.
// The input image is left untouched. With no detections img is returned as is.
func (o *Overlay) Draw(img image.Image, dets []Detection) image.Image {
	if len(dets) == 0 {
		return img
	}
	dc := gg.NewContextForImage(img)
	dc.SetColor(BoxColor)
	dc.SetLineWidth(boxThickness)
	// Face keeps a glyph cache and is not safe to share between goroutines
	dc.SetFontFace(o.newFace())

	for _, d := range dets {
		x1, y1, x2, y2 := d.Coordinates()
		dc.DrawRectangle(float64(x1), float64(y1), float64(x2-x1), float64(y2-y1))
		dc.Stroke()
		dc.DrawString(o.caption, float64(x1), float64(y1-captionGap))
	}
	return dc.Image()
}

func (o *Overlay) newFace() font.Face {
	return truetype.NewFace(o.font, &truetype.Options{Size: captionSize})
}
