package report

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kozaktomas/face-attendance/internal/recognition"
)

var (
	matchedColor   = color.RGBA{0, 200, 0, 255}
	unmatchedColor = color.RGBA{220, 0, 0, 255}
)

const boxLineWidth = 2

// Annotate draws a colored bounding box and label for every detection:
// green for accepted matches, red for unmatched faces.
func Annotate(img image.Image, results []recognition.MatchResult) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)

	for _, r := range results {
		c := unmatchedColor
		if r.Accepted {
			c = matchedColor
		}

		x1 := bounds.Min.X + r.Box.X
		y1 := bounds.Min.Y + r.Box.Y
		x2 := x1 + r.Box.W
		y2 := y1 + r.Box.H

		for w := range boxLineWidth {
			drawHLine(dst, x1, x2, y1+w, c)
			drawHLine(dst, x1, x2, y2-w, c)
			drawVLine(dst, y1, y2, x1+w, c)
			drawVLine(dst, y1, y2, x2-w, c)
		}

		drawLabel(dst, Label(r), x1, max(20, y1-6), c)
	}

	return dst
}

// SaveAnnotated writes the annotated image as a timestamped JPEG into dir,
// creating the directory when needed. Returns the written path.
func SaveAnnotated(dir string, img image.Image, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("recognized_%s.jpg", now.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode output image: %w", err)
	}
	return path, nil
}

// drawHLine draws a horizontal line on the image.
func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= bounds.Min.X && x < bounds.Max.X {
			dst.Set(x, y, c)
		}
	}
}

// drawVLine draws a vertical line on the image.
func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= bounds.Min.Y && y < bounds.Max.Y {
			dst.Set(x, y, c)
		}
	}
}

// drawLabel renders the label text just above the bounding box.
func drawLabel(dst *image.RGBA, label string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}
