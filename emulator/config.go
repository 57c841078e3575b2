package emulator

import (
	"io"
	"log"
	"unicode/utf8"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/cpu"
	chipio "github.com/ezrec/chip8/io"
)

// Config is the host configuration of an emulator session.
type Config struct {
	ShiftQuirk     bool         // Shift Vx in place, ignoring Vy.
	CyclesPerFrame int          // Instruction cycles per frame.
	KeyHold        int          // Frames a key stays down after a press.
	Keymap         map[rune]int // Additional host key bindings.
}

// DefaultConfig returns the configuration of a plain CHIP-8 interpreter.
func DefaultConfig() Config {
	return Config{
		CyclesPerFrame: cpu.CYCLES_PER_FRAME,
		KeyHold:        chipio.KEY_HOLD,
	}
}

// LoadConfig evaluates a Starlark configuration script, and returns the
// default configuration updated by the script's globals:
//
//	shift_quirk = True
//	cycles_per_frame = 12
//	key_hold = 4
//	keymap = {"i": 0x5, "k": 0x8}
//
// Unknown globals are ignored.
func LoadConfig(name string, input io.Reader) (cfg Config, err error) {
	cfg = DefaultConfig()

	src, err := io.ReadAll(input)
	if err != nil {
		return
	}

	thread := &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, msg string) { log.Printf("%v: %v", name, msg) },
	}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"CYCLES_PER_FRAME": starlark.MakeInt(cpu.CYCLES_PER_FRAME),
		"FRAME_RATE":       starlark.MakeInt(cpu.FRAME_RATE),
		"KEY_HOLD":         starlark.MakeInt(chipio.KEY_HOLD),
	}

	globals, err := starlark.ExecFileOptions(&opts, thread, name, src, pred)
	if err != nil {
		return
	}

	if value, ok := globals["shift_quirk"]; ok {
		quirk, ok := value.(starlark.Bool)
		if !ok {
			err = &ErrConfig{Key: "shift_quirk", Err: ErrConfigType}
			return
		}
		cfg.ShiftQuirk = bool(quirk)
	}

	if value, ok := globals["cycles_per_frame"]; ok {
		cfg.CyclesPerFrame, err = configInt("cycles_per_frame", value, 1, 1000)
		if err != nil {
			return
		}
	}

	if value, ok := globals["key_hold"]; ok {
		cfg.KeyHold, err = configInt("key_hold", value, 1, cpu.FRAME_RATE)
		if err != nil {
			return
		}
	}

	if value, ok := globals["keymap"]; ok {
		dict, ok := value.(*starlark.Dict)
		if !ok {
			err = &ErrConfig{Key: "keymap", Err: ErrConfigType}
			return
		}
		cfg.Keymap = make(map[rune]int, dict.Len())
		for _, item := range dict.Items() {
			str, ok := item[0].(starlark.String)
			if !ok || utf8.RuneCountInString(string(str)) != 1 {
				err = &ErrConfig{Key: "keymap", Err: ErrConfigType}
				return
			}
			var key int
			key, err = configInt("keymap", item[1], 0, cpu.KEY_COUNT-1)
			if err != nil {
				return
			}
			r, _ := utf8.DecodeRuneInString(string(str))
			cfg.Keymap[r] = key
		}
	}

	return
}

// configInt converts a Starlark integer, bounded to [lo, hi].
func configInt(key string, value starlark.Value, lo, hi int) (out int, err error) {
	num, ok := value.(starlark.Int)
	if !ok {
		err = &ErrConfig{Key: key, Err: ErrConfigType}
		return
	}

	n64, ok := num.Int64()
	if !ok || n64 < int64(lo) || n64 > int64(hi) {
		err = &ErrConfig{Key: key, Err: ErrConfigRange}
		return
	}

	out = int(n64)
	return
}
