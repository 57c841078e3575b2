package io

import (
	"io"
	"strings"

	"github.com/ezrec/chip8/cpu"
)

const (
	SCREEN_ROWS = cpu.SCREEN_HEIGHT / 2 // Text rows, two pixels per row.
)

// Screen presents the framebuffer to the host.
type Screen interface {
	Draw(display *cpu.Display, beeping bool) error
}

// HalfBlock returns the rune showing a pair of vertically stacked pixels.
func HalfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	default:
		return ' '
	}
}

// Text draws the framebuffer as lines of half-block runes.
type Text struct {
	Output io.Writer
}

var _ Screen = (*Text)(nil)

func (txt *Text) Draw(display *cpu.Display, beeping bool) (err error) {
	var sb strings.Builder

	for row := range SCREEN_ROWS {
		for x := range cpu.SCREEN_WIDTH {
			sb.WriteRune(HalfBlock(display.Pixel(x, row*2), display.Pixel(x, row*2+1)))
		}
		sb.WriteByte('\n')
	}

	if beeping {
		sb.WriteString(f("BEEP"))
		sb.WriteByte('\n')
	}

	_, err = io.WriteString(txt.Output, sb.String())

	return
}
