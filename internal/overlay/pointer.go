// Package overlay annotates failure screenshots with where the test last
// pointed, so a reader can tell which element an action was aimed at.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
)

const ringRadius = 15

var (
	outline   = color.RGBA{0, 0, 0, 255}
	fill      = color.RGBA{255, 255, 255, 255}
	ringColor = color.RGBA{220, 38, 38, 255}
)

// MarkPNG decodes a PNG screenshot, draws the pointer at (x, y) and
// re-encodes it. Coordinates are in image pixels.
func MarkPNG(data []byte, x, y float64) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Mark(src, int(math.Round(x)), int(math.Round(y)))); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Mark returns a copy of frame with a target ring and an arrow pointer at
// (x, y). Points outside the frame leave it unmarked.
func Mark(frame image.Image, x, y int) *image.RGBA {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if !image.Pt(x, y).In(bounds) {
		return result
	}
	drawRing(result, x, y)
	drawArrow(result, x, y)
	return result
}

// drawArrow draws a simple arrow pointer with its tip at (x, y).
func drawArrow(img *image.RGBA, x, y int) {
	points := []struct{ dx, dy int }{
		{0, 0},
		{0, 16},
		{4, 12},
		{7, 18},
		{10, 17},
		{7, 11},
		{12, 11},
	}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if insideArrow(dx, dy) {
				setPixelSafe(img, x+dx, y+dy, fill)
			}
		}
	}
	for i := range points {
		p1 := points[i]
		p2 := points[(i+1)%len(points)]
		drawLine(img, x+p1.dx, y+p1.dy, x+p2.dx, y+p2.dy, outline)
	}
}

func insideArrow(dx, dy int) bool {
	if dy < 0 || dy > 16 || dx < 0 {
		return false
	}
	if dy <= 11 {
		return dx <= dy*12/16
	}
	return dx <= 4
}

// drawLine is Bresenham's line algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRing draws a two pixel wide circle centred on (x, y).
func drawRing(img *image.RGBA, x, y int) {
	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(float64(ringRadius)*math.Cos(rad))
		py := y + int(float64(ringRadius)*math.Sin(rad))
		setPixelSafe(img, px, py, ringColor)
		setPixelSafe(img, px+1, py, ringColor)
		setPixelSafe(img, px, py+1, ringColor)
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
