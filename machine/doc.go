// Package machine implements the CHIP-8 interpreter and an assembler for it.
//
// The Machine consists of 4KiB of memory, sixteen 8-bit registers (V0-VF),
// a 16-bit index register (I), a program counter (PC), a sixteen entry call
// stack, delay and sound timers, a sixteen key keypad and a 64x32 monochrome
// framebuffer. A host drives it by calling Step for each instruction and
// TickTimers at 60Hz.
//
// The assembler provides a small assembly language for the CHIP-8 instruction
// set, supporting macros, labels, equates, and compile-time expression
// evaluation.
package machine
