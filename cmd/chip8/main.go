// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

func main() {
	var compile string
	var rom string
	var save bool
	var output string
	var config string
	var quirk bool
	var cycles int
	var batch int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".8o assembly file to compile")
	flag.StringVar(&rom, "r", "", ".ch8 ROM file to run")
	flag.BoolVar(&save, "s", false, "Save compiled ROM to the output, do not execute")
	flag.StringVar(&output, "o", "-", "Compiled ROM output")
	flag.StringVar(&config, "f", "", "Starlark configuration script")
	flag.BoolVar(&quirk, "q", false, "Shift quirk (shr/shl ignore vy)")
	flag.IntVar(&cycles, "n", 0, "Cycles per frame (default from configuration)")
	flag.IntVar(&batch, "b", 0, "Run this many frames without a terminal, then print the display")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) != 0 && len(rom) != 0 {
		log.Fatalf("%v: -c and -r are exclusive", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.Rom.Data = emu.Program.Binary()
	}

	if len(rom) != 0 {
		inf, err := os.Open(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		defer inf.Close()

		err = emu.Rom.Load(inf)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
	}

	if save {
		ouf := os.Stdout
		if output != "-" {
			var err error
			ouf, err = os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			defer ouf.Close()
		}
		err := emu.Rom.Save(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	cfg := emulator.DefaultConfig()
	if len(config) != 0 {
		inf, err := os.Open(config)
		if err != nil {
			log.Fatalf("%v: %v", config, err)
		}
		cfg, err = emulator.LoadConfig(config, inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", config, err)
		}
	}

	// Flags override the configuration.
	if quirk {
		cfg.ShiftQuirk = true
	}
	if cycles != 0 {
		cfg.CyclesPerFrame = cycles
	}

	err := emu.Configure(cfg)
	if err != nil {
		log.Fatal(err)
	}

	err = emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	if batch > 0 {
		for range batch {
			err = emu.Frame(cpu.Keys{})
			if err != nil {
				log.Fatal(err)
			}
		}
		txt := &io.Text{Output: os.Stdout}
		err = txt.Draw(&emu.Display, emu.Beeping())
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	err = run(emu)
	if err != nil {
		log.Fatal(err)
	}
}

// run the emulator on the terminal until the user quits.
func run(emu *emulator.Emulator) (err error) {
	term, err := io.NewTerminal()
	if err != nil {
		return
	}
	defer term.Close()

	ticker := time.NewTicker(time.Second / cpu.FRAME_RATE)
	defer ticker.Stop()

	for {
		select {
		case <-term.Done():
			err = term.Err()
			return
		case r := <-term.Keys():
			emu.Keypad.Press(r)
		case <-ticker.C:
			err = emu.Frame(emu.Keypad.State())
			if err != nil {
				return
			}
			emu.Keypad.Tick()

			err = term.Draw(&emu.Display, emu.Beeping())
			if err != nil {
				return
			}
		}
	}
}
