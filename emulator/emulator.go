// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

var _emulator_defines = map[string]string{
	"FRAME_RATE":       fmt.Sprintf("%v", cpu.FRAME_RATE),
	"CYCLES_PER_FRAME": fmt.Sprintf("%v", cpu.CYCLES_PER_FRAME),
}

// Emulator state. CPU + ROM image + keypad.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Rom    io.Rom    // Program image, when not assembled.
	Keypad io.Keypad // Host key to keypad mapping.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Chain(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Rom.Defines(),
		emu.Keypad.Defines(),
	)
}

// Configure applies a configuration to the CPU and keypad.
// The configuration takes effect without a reset.
func (emu *Emulator) Configure(cfg Config) (err error) {
	if emu.Verbose {
		log.Printf("emulator: configure %+v", cfg)
	}

	if cfg.CyclesPerFrame < 1 {
		err = &ErrConfig{Key: "cycles_per_frame", Err: ErrConfigRange}
		return
	}

	for r, key := range cfg.Keymap {
		err = emu.Keypad.Bind(r, key)
		if err != nil {
			err = &ErrConfig{Key: "keymap", Err: err}
			return
		}
	}

	emu.Cpu.ShiftQuirk = cfg.ShiftQuirk
	emu.Cpu.CyclesPerFrame = cfg.CyclesPerFrame
	emu.Keypad.Hold = cfg.KeyHold

	return
}

// Reset the emulator, and load the program.
// An assembled Program replaces the ROM image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false

	if len(emu.Program.Opcodes) > 0 {
		emu.Rom.Data = emu.Program.Binary()
	}

	err = emu.Cpu.Load(emu.Rom.Data)
	if err != nil {
		return
	}

	emu.Keypad.Reset()

	emu.Cpu.Verbose = emu.Verbose

	return
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() cpu.Code {
	return emu.Cpu.FetchCode()
}

// LineNo returns the current line number for the executing opcode, or
// zero if the program counter is outside the assembled program.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Frame runs a single frame of the emulator with the keys held down.
func (emu *Emulator) Frame(keys cpu.Keys) (err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	defer func() {
		if err != nil {
			err = &ErrRuntime{Address: emu.Cpu.Pc, LineNo: emu.LineNo(), Err: err}
		}
	}()

	err = emu.Cpu.Frame(keys)

	return
}
