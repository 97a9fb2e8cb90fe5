package emulator

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrHalted = errors.New(f("emulator halted"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	PC     uint16 // Address of the failing instruction.
	Opcode uint16 // Instruction word at PC.
	LineNo int    // Source line, or 0 if unknown.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d: %03x: %04x: %v", err.LineNo, err.PC, err.Opcode, err.Err)
	}
	return f("%03x: %04x: %v", err.PC, err.Opcode, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
