// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/machine"
)

const (
	FRAME_RATE       = 60 // Frames per second; timers tick once per frame.
	CYCLES_PER_FRAME = 11 // Default instructions executed per frame.
)

var _emulator_defines = map[string]string{
	"FRAME_RATE":       fmt.Sprintf("%d", FRAME_RATE),
	"CYCLES_PER_FRAME": fmt.Sprintf("%d", CYCLES_PER_FRAME),
}

// Emulator drives a machine at a fixed instruction rate, and tracks the
// program listing it is running.
type Emulator struct {
	Verbose          bool             // If set, enables verbose logging.
	*machine.Machine                  // Reference to the machine state.
	Program          *machine.Program // Listing of the running program, if assembled.
	CyclesPerFrame   int              // Instructions executed per Frame.

	image  []byte // Last image loaded without a listing.
	halted error  // Set when a runtime error stops the emulator.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine:        machine.NewMachine(),
		CyclesPerFrame: CYCLES_PER_FRAME,
	}

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	table := internal.Defines(
		emu.Machine.Defines(),
		maps.All(_emulator_defines),
	)

	return maps.All(table)
}

// LoadImage sets a raw program image, and resets the machine with it.
// Any attached listing is dropped.
func (emu *Emulator) LoadImage(image []byte) (err error) {
	if len(image) > machine.ROM_LIMIT {
		err = machine.ErrImageTooLarge
		return
	}

	emu.image = slices.Clone(image)
	emu.Program = nil

	return emu.Reset()
}

// Reset the machine, and reload the program.
func (emu *Emulator) Reset() (err error) {
	emu.Machine.Verbose = emu.Verbose

	image := emu.image
	if emu.Program != nil {
		image = emu.Program.Binary()
	}

	emu.Machine.Reset()
	emu.halted = nil

	err = emu.Machine.Load(image)
	if err != nil {
		emu.halted = err
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset, %d byte image", len(image))
	}

	return
}

// Halted returns the error that stopped the emulator, if any.
func (emu *Emulator) Halted() error {
	return emu.halted
}

// LineNo returns the source line number of the instruction at PC, or 0
// if there is no listing for it.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.PC)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// opcode returns the instruction word at addr, or zero if out of memory.
func (emu *Emulator) opcode(addr uint16) (code uint16) {
	if int(addr)+1 >= machine.MEMORY_SIZE {
		return
	}

	code = uint16(emu.Memory[addr])<<8 | uint16(emu.Memory[addr+1])
	return
}

// Tick executes a single instruction.
// After a runtime error, the emulator stays halted until the next Reset.
func (emu *Emulator) Tick() (err error) {
	if emu.halted != nil {
		err = ErrHalted
		return
	}

	emu.Machine.Verbose = emu.Verbose

	pc := emu.PC
	lineno := emu.LineNo()

	err = emu.Machine.Step()
	if err != nil {
		err = &ErrRuntime{PC: pc, Opcode: emu.opcode(pc), LineNo: lineno, Err: err}
		emu.halted = err
		if emu.Verbose {
			log.Printf("emulator: %v", err)
		}
		return
	}

	return
}

// Frame executes CyclesPerFrame instructions, then ticks the timers once.
func (emu *Emulator) Frame() (err error) {
	for range emu.CyclesPerFrame {
		err = emu.Tick()
		if err != nil {
			return
		}
	}

	emu.TickTimers()

	return
}

// String renders the framebuffer as rows of '#' (lit) and '.' (dark).
func (emu *Emulator) String() string {
	var sb strings.Builder

	sb.Grow((machine.VIDEO_WIDTH + 1) * machine.VIDEO_HEIGHT)
	for y := range machine.VIDEO_HEIGHT {
		for x := range machine.VIDEO_WIDTH {
			if emu.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
