package display

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// DefaultLineSpacing is the distance between text baselines in pixels.
const DefaultLineSpacing = 12

// LoadFace loads a TrueType or OpenType font at size points. An empty path
// selects the built-in 7x13 ASCII face.
func LoadFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("display: read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("display: parse font %s: %w", path, err)
	}
	if size <= 0 {
		size = 12
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("display: create face: %w", err)
	}
	return face, nil
}

// Canvas rasterizes lines of text into a 1-bit frame.
type Canvas struct {
	Bounds  image.Rectangle
	Face    font.Face
	Spacing int
}

// NewCanvas creates a w×h canvas. A nil face selects the built-in face.
func NewCanvas(w, h int, face font.Face) *Canvas {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &Canvas{
		Bounds:  image.Rect(0, 0, w, h),
		Face:    face,
		Spacing: DefaultLineSpacing,
	}
}

// Render draws lines from the top-left corner, one every Spacing pixels,
// stopping at the bottom edge.
func (c *Canvas) Render(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(c.Bounds)
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: c.Face,
	}
	ascent := c.Face.Metrics().Ascent.Ceil()
	y := c.Bounds.Min.Y
	for _, line := range lines {
		if y >= c.Bounds.Max.Y {
			break
		}
		d.Dot = fixed.P(c.Bounds.Min.X, y+ascent)
		d.DrawString(line)
		y += c.Spacing
	}
	return img
}
