package io

import (
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/ezrec/chip8/cpu"
)

// Rom is a program image, loaded at cpu.PROGRAM_START.
type Rom struct {
	Data []byte
}

// Defines returns an iter of defines for the ROM.
func (rom *Rom) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"ROM_LIMIT": fmt.Sprintf("0x%x", cpu.PROGRAM_LIMIT),
	})
}

// Load reads a whole program image from the input.
// Images that cannot fit in the program area fail with ErrRomTooLarge,
// leaving the ROM unchanged.
func (rom *Rom) Load(input io.Reader) (err error) {
	data, err := io.ReadAll(io.LimitReader(input, cpu.PROGRAM_LIMIT+1))
	if err != nil {
		return
	}

	if len(data) > cpu.PROGRAM_LIMIT {
		err = ErrRomTooLarge
		return
	}

	rom.Data = data

	return
}

// Save writes the program image to the output.
func (rom *Rom) Save(output io.Writer) (err error) {
	_, err = output.Write(rom.Data)
	return
}
