package machine

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and
// generated bytes.
type Opcode struct {
	LineNo    int      // Source line.
	Addr      int      // Load address of the first byte.
	Words     []string // Source words, after equate substitution.
	Data      []byte   // Generated bytes.
	LinkLabel string   // Label to link into the address operand.
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int // Offset of the address within the opcode data.
}

// Debug finds the opcode that generated the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Data) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the loadable image, starting at ROM_BASE.
func (prog *Program) Binary() (image []byte) {
	for addr, data := range prog.Bytes() {
		offset := int(addr) - ROM_BASE
		if offset >= len(image) {
			image = append(image, make([]byte, offset+1-len(image))...)
		}
		image[offset] = data
	}

	return
}

// Bytes iterates over every generated byte and its address.
func (prog *Program) Bytes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, data byte) bool) {
		for _, op := range prog.Opcodes {
			for n, data := range op.Data {
				if !yield(uint16(op.Addr+n), data) {
					return
				}
			}
		}
	}
}
