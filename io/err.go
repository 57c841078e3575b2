package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Device errors
	ErrRomTooLarge = errors.New(f("rom too large"))
	ErrKeyInvalid  = errors.New(f("key invalid"))
)
