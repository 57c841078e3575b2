package io

import (
	"fmt"
	"iter"
	"maps"
	"unicode"

	"github.com/ezrec/chip8/cpu"
)

const (
	KEY_HOLD = 6 // Default frames a key stays down after a press.
)

// _default_keymap is the usual QWERTY layout of the hexadecimal keypad:
//
//	1 2 3 4        1 2 3 C
//	q w e r   ->   4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
var _default_keymap = map[rune]int{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// Keypad maps host key presses to the hexadecimal keypad.
//
// Terminals report presses but not releases, so a pressed key is held
// down for Hold frames after its last press.
type Keypad struct {
	Hold int // Frames a key stays down. KEY_HOLD if unset.

	keymap map[rune]int
	held   [cpu.KEY_COUNT]int
}

// Defines returns an iter of defines for the keypad.
func (kp *Keypad) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"KEY_HOLD": fmt.Sprintf("%d", kp.hold()),
	})
}

func (kp *Keypad) hold() int {
	if kp.Hold < 1 {
		return KEY_HOLD
	}
	return kp.Hold
}

// Bind maps a host rune to a key, in addition to the default layout.
func (kp *Keypad) Bind(r rune, key int) (err error) {
	if key < 0 || key >= cpu.KEY_COUNT {
		err = ErrKeyInvalid
		return
	}

	if kp.keymap == nil {
		kp.keymap = maps.Clone(_default_keymap)
	}
	kp.keymap[r] = key

	return
}

// Lookup returns the key bound to a host rune.
// Upper case runes fall back to their lower case binding.
func (kp *Keypad) Lookup(r rune) (key int, ok bool) {
	keymap := kp.keymap
	if keymap == nil {
		keymap = _default_keymap
	}

	key, ok = keymap[r]
	if !ok {
		key, ok = keymap[unicode.ToLower(r)]
	}

	return
}

// Press presses the key bound to the rune.
// Returns false if the rune is not bound.
func (kp *Keypad) Press(r rune) (ok bool) {
	key, ok := kp.Lookup(r)
	if ok {
		kp.PressKey(key)
	}
	return
}

// PressKey presses a key by index.
func (kp *Keypad) PressKey(key int) {
	kp.held[key&0xf] = kp.hold()
}

// Tick counts down one frame of every held key.
func (kp *Keypad) Tick() {
	for n, frames := range kp.held {
		if frames > 0 {
			kp.held[n] = frames - 1
		}
	}
}

// State returns the keys currently down.
func (kp *Keypad) State() (keys cpu.Keys) {
	for n, frames := range kp.held {
		keys[n] = frames > 0
	}
	return
}

// Reset releases every key.
func (kp *Keypad) Reset() {
	clear(kp.held[:])
}
