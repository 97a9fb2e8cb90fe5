// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/machine"
)

const KEY_ESCAPE = 0x1b

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func main() {
	var rom string
	var compile string
	var save string
	var cpf int
	var frames int
	var seed uint64
	var hold int
	var layout string
	var verbose bool

	flag.StringVar(&rom, "r", "", "ROM image to run")
	flag.StringVar(&compile, "c", "", "Assembly source to compile and run")
	flag.StringVar(&save, "s", "", "Save the program image to a file, do not execute")
	flag.IntVar(&cpf, "cpf", emulator.CYCLES_PER_FRAME, "Instructions per 60Hz frame")
	flag.IntVar(&frames, "frames", 0, "Run headless for N frames, then print the screen")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	flag.IntVar(&hold, "hold", io.KEY_HOLD, "Frames a key stays down after a press")
	flag.StringVar(&layout, "keys", io.LAYOUT_DEFAULT, "Keyboard runes for keys 0 through F")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("Unknown arguments: %v", flag.Args())
	}

	if (len(rom) == 0) == (len(compile) == 0) {
		log.Fatalf("Exactly one of -r or -c is required")
	}

	if cpf <= 0 {
		log.Fatalf("-cpf %d: must be positive", cpf)
	}

	keys, err := io.ParseLayout(layout)
	if err != nil {
		log.Fatalf("-keys: %v", err)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.CyclesPerFrame = cpf
	if seed != 0 {
		emu.Random = machine.NewRandom(seed)
	}

	var image []byte

	// Load a ROM image.
	if len(rom) != 0 {
		inf, err := os.Open(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		image, err = io.ReadRom(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}

		err = emu.LoadImage(image)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
	}

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		asm := &machine.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err := asm.Parse(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		emu.Program = prog
		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		image = prog.Binary()
	}

	if len(save) != 0 {
		err = os.WriteFile(save, image, 0o644)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	if frames > 0 {
		for range frames {
			err = emu.Frame()
			if err != nil {
				log.Fatal(err)
			}
		}
		fmt.Print(emu.String())
		return
	}

	keymap := &io.Keymap{Hold: hold, Keys: keys}
	err = interactive(emu, keymap)
	if err != nil {
		log.Fatal(err)
	}
}

// interactive runs the emulator in a raw terminal, until Esc is pressed,
// the input closes, or the process is interrupted.
func interactive(emu *emulator.Emulator, keymap *io.Keymap) (err error) {
	err = enterRawTerm()
	if err != nil {
		return
	}
	defer exitRawTerm()

	display := &io.Display{Output: os.Stdout, Status: "Esc to quit"}
	defer display.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	// The reader only forwards bytes; the emulator is owned by this goroutine.
	input := make(chan byte, 16)
	go func() {
		defer close(input)
		reader := bufio.NewReader(os.Stdin)
		for {
			b, err := reader.ReadByte()
			if err != nil {
				return
			}
			input <- b
		}
	}()

	ticker := time.NewTicker(time.Second / emulator.FRAME_RATE)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			return
		case b, ok := <-input:
			if !ok || b == KEY_ESCAPE {
				return
			}
			keymap.Press(rune(b))
		case <-ticker.C:
			keymap.Release(emu)
			err = emu.Frame()
			if err != nil {
				return
			}
			_, err = display.Draw(emu)
			if err != nil {
				return
			}
		}
	}
}
