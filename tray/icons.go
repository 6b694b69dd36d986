//go:build linux

package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

var (
	iconIdle []byte
	iconRec  []byte
)

func init() {
	grey := color.RGBA{R: 190, G: 190, B: 190, A: 255}
	red := color.RGBA{R: 255, G: 59, B: 48, A: 255}
	iconIdle = renderDot(22, grey)
	iconRec = renderDot(22, red)
}

// renderDot draws a filled antialiased circle on a transparent square.
func renderDot(size int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size)/2 - 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			switch {
			case d <= r:
				img.SetRGBA(x, y, c)
			case d <= r+1:
				a := uint8(float64(c.A) * (r + 1 - d))
				img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: a})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("tray icon encode: " + err.Error())
	}
	return buf.Bytes()
}
