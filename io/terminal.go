package io

import (
	"github.com/nsf/termbox-go"

	"github.com/ezrec/chip8/cpu"
)

// Terminal is a full screen termbox session, rendering the framebuffer
// and collecting key presses.
//
// Esc or Ctrl-C ends the session.
type Terminal struct {
	keys chan rune
	done chan struct{}
	exit chan struct{}
	err  error
}

var _ Screen = (*Terminal)(nil)

// NewTerminal takes over the terminal.
func NewTerminal() (term *Terminal, err error) {
	err = termbox.Init()
	if err != nil {
		return
	}

	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()

	term = &Terminal{
		keys: make(chan rune, cpu.KEY_COUNT),
		done: make(chan struct{}),
		exit: make(chan struct{}),
	}

	go term.poll()

	return
}

func (term *Terminal) poll() {
	defer close(term.exit)

	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			switch {
			case ev.Key == termbox.KeyEsc, ev.Key == termbox.KeyCtrlC:
				close(term.done)
				return
			case ev.Ch != 0:
				term.send(ev.Ch)
			case ev.Key == termbox.KeySpace:
				term.send(' ')
			}
		case termbox.EventError:
			term.err = ev.Err
			close(term.done)
			return
		case termbox.EventInterrupt:
			return
		}
	}
}

func (term *Terminal) send(r rune) {
	select {
	case term.keys <- r:
	default:
		// Frame loop is behind; drop the press.
	}
}

// Keys returns the channel of pressed runes.
func (term *Terminal) Keys() <-chan rune {
	return term.keys
}

// Done is closed when the user ends the session.
func (term *Terminal) Done() <-chan struct{} {
	return term.done
}

// Err returns the terminal error that ended the session, if any.
// Only valid once Done is closed.
func (term *Terminal) Err() error {
	return term.err
}

// Draw renders the framebuffer, with a status line while beeping.
func (term *Terminal) Draw(display *cpu.Display, beeping bool) (err error) {
	const fg, bg = termbox.ColorWhite, termbox.ColorBlack

	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	for row := range SCREEN_ROWS {
		for x := range cpu.SCREEN_WIDTH {
			ch := HalfBlock(display.Pixel(x, row*2), display.Pixel(x, row*2+1))
			termbox.SetCell(x, row, ch, fg, bg)
		}
	}

	if beeping {
		for n, ch := range []rune(f("BEEP")) {
			termbox.SetCell(n, SCREEN_ROWS, ch, termbox.ColorYellow|termbox.AttrBold, termbox.ColorDefault)
		}
	}

	err = termbox.Flush()

	return
}

// Close restores the terminal.
func (term *Terminal) Close() (err error) {
	select {
	case <-term.exit:
	default:
		termbox.Interrupt()
		<-term.exit
	}

	termbox.Close()

	return
}
