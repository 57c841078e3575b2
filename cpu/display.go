package cpu

import (
	"strings"
)

const (
	SCREEN_WIDTH  = 64 // Display width in pixels.
	SCREEN_HEIGHT = 32 // Display height in pixels.
)

// Display is the monochrome framebuffer, one bool per pixel, row-major.
type Display struct {
	Pixels [SCREEN_WIDTH * SCREEN_HEIGHT]bool
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	clear(d.Pixels[:])
}

// Pixel returns true if the pixel at x, y is lit.
// Coordinates wrap around the display edges.
func (d *Display) Pixel(x, y int) bool {
	return d.Pixels[d.offset(x, y)]
}

// Flip toggles the pixel at x, y, and returns true if the pixel was
// lit before the toggle.
func (d *Display) Flip(x, y int) (erased bool) {
	n := d.offset(x, y)
	erased = d.Pixels[n]
	d.Pixels[n] = !erased
	return
}

// Sprite XORs rows of 8-pixel wide sprite data onto the display at x, y.
// Each pixel wraps independently. Returns true if any lit pixel was erased.
func (d *Display) Sprite(x, y int, rows []byte) (collision bool) {
	for row, bits := range rows {
		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}
			if d.Flip(x+col, y+row) {
				collision = true
			}
		}
	}
	return
}

// Bytes renders the display as one byte per pixel, 0x00 for unlit and
// 0xFF for lit, row-major.
func (d *Display) Bytes() (out []byte) {
	out = make([]byte, len(d.Pixels))
	for n, lit := range d.Pixels {
		if lit {
			out[n] = 0xff
		}
	}
	return
}

// String renders the display as text, '#' for lit and '.' for unlit.
func (d *Display) String() string {
	var sb strings.Builder
	for y := range SCREEN_HEIGHT {
		for x := range SCREEN_WIDTH {
			if d.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (d *Display) offset(x, y int) int {
	x %= SCREEN_WIDTH
	if x < 0 {
		x += SCREEN_WIDTH
	}
	y %= SCREEN_HEIGHT
	if y < 0 {
		y += SCREEN_HEIGHT
	}
	return y*SCREEN_WIDTH + x
}
