package machine

import (
	"fmt"
)

// Kind is the decoded instruction type.
type Kind int

//go:generate go tool stringer -linecomment -type=Kind
const (
	OP_CLS         = Kind(0)  // cls
	OP_RET         = Kind(1)  // ret
	OP_JP          = Kind(2)  // jp
	OP_CALL        = Kind(3)  // call
	OP_SE_BYTE     = Kind(4)  // se
	OP_SNE_BYTE    = Kind(5)  // sne
	OP_SE_REG      = Kind(6)  // se
	OP_LD_BYTE     = Kind(7)  // ld
	OP_ADD_BYTE    = Kind(8)  // add
	OP_LD_REG      = Kind(9)  // ld
	OP_OR          = Kind(10) // or
	OP_AND         = Kind(11) // and
	OP_XOR         = Kind(12) // xor
	OP_ADD_REG     = Kind(13) // add
	OP_SUB         = Kind(14) // sub
	OP_SHR         = Kind(15) // shr
	OP_SUBN        = Kind(16) // subn
	OP_SHL         = Kind(17) // shl
	OP_SNE_REG     = Kind(18) // sne
	OP_LD_I        = Kind(19) // ld
	OP_JP_V0       = Kind(20) // jp
	OP_RND         = Kind(21) // rnd
	OP_DRW         = Kind(22) // drw
	OP_SKP         = Kind(23) // skp
	OP_SKNP        = Kind(24) // sknp
	OP_LD_VX_DT    = Kind(25) // ld
	OP_LD_VX_K     = Kind(26) // ld
	OP_LD_DT_VX    = Kind(27) // ld
	OP_LD_ST_VX    = Kind(28) // ld
	OP_ADD_I       = Kind(29) // add
	OP_LD_F        = Kind(30) // ld
	OP_LD_B        = Kind(31) // ld
	OP_LD_MEM_REGS = Kind(32) // ld
	OP_LD_REGS_MEM = Kind(33) // ld
)

// Valid returns true if the Kind is a defined instruction type.
func (kind Kind) Valid() bool {
	return kind >= 0 && int(kind) < len(kindInfo)
}

// operandForm is the set of operand fields an instruction uses.
type operandForm int

const (
	FORM_NONE = operandForm(0) // no operands
	FORM_NNN  = operandForm(1) // 12-bit address
	FORM_XKK  = operandForm(2) // register, byte
	FORM_XY   = operandForm(3) // register, register
	FORM_XYN  = operandForm(4) // register, register, nibble
	FORM_X    = operandForm(5) // register
)

// kindInfo is the fixed bit pattern and operand form of each Kind.
var kindInfo = [...]struct {
	pattern uint16
	form    operandForm
}{
	OP_CLS:         {0x00E0, FORM_NONE},
	OP_RET:         {0x00EE, FORM_NONE},
	OP_JP:          {0x1000, FORM_NNN},
	OP_CALL:        {0x2000, FORM_NNN},
	OP_SE_BYTE:     {0x3000, FORM_XKK},
	OP_SNE_BYTE:    {0x4000, FORM_XKK},
	OP_SE_REG:      {0x5000, FORM_XY},
	OP_LD_BYTE:     {0x6000, FORM_XKK},
	OP_ADD_BYTE:    {0x7000, FORM_XKK},
	OP_LD_REG:      {0x8000, FORM_XY},
	OP_OR:          {0x8001, FORM_XY},
	OP_AND:         {0x8002, FORM_XY},
	OP_XOR:         {0x8003, FORM_XY},
	OP_ADD_REG:     {0x8004, FORM_XY},
	OP_SUB:         {0x8005, FORM_XY},
	OP_SHR:         {0x8006, FORM_XY},
	OP_SUBN:        {0x8007, FORM_XY},
	OP_SHL:         {0x800E, FORM_XY},
	OP_SNE_REG:     {0x9000, FORM_XY},
	OP_LD_I:        {0xA000, FORM_NNN},
	OP_JP_V0:       {0xB000, FORM_NNN},
	OP_RND:         {0xC000, FORM_XKK},
	OP_DRW:         {0xD000, FORM_XYN},
	OP_SKP:         {0xE09E, FORM_X},
	OP_SKNP:        {0xE0A1, FORM_X},
	OP_LD_VX_DT:    {0xF007, FORM_X},
	OP_LD_VX_K:     {0xF00A, FORM_X},
	OP_LD_DT_VX:    {0xF015, FORM_X},
	OP_LD_ST_VX:    {0xF018, FORM_X},
	OP_ADD_I:       {0xF01E, FORM_X},
	OP_LD_F:        {0xF029, FORM_X},
	OP_LD_B:        {0xF033, FORM_X},
	OP_LD_MEM_REGS: {0xF055, FORM_X},
	OP_LD_REGS_MEM: {0xF065, FORM_X},
}

// Code is a raw 16-bit instruction word, as fetched from memory.
type Code uint16

// Group returns the top nibble, which selects the instruction group.
func (code Code) Group() byte {
	return byte(code>>12) & 0xf
}

// X returns the first register operand.
func (code Code) X() byte {
	return byte(code>>8) & 0xf
}

// Y returns the second register operand.
func (code Code) Y() byte {
	return byte(code>>4) & 0xf
}

// N returns the low nibble.
func (code Code) N() byte {
	return byte(code) & 0xf
}

// KK returns the low byte.
func (code Code) KK() byte {
	return byte(code)
}

// NNN returns the low 12 bits.
func (code Code) NNN() uint16 {
	return uint16(code) & 0x0fff
}

// Instruction is a decoded instruction. Only the operand fields used by
// its Kind are set.
type Instruction struct {
	Kind Kind
	X    byte   // First register.
	Y    byte   // Second register.
	N    byte   // Sprite height.
	KK   byte   // Byte immediate.
	NNN  uint16 // Address immediate.
}

// Decode decodes the instruction word, or returns ErrUnknownOpcode.
func (code Code) Decode() (inst Instruction, err error) {
	kind, ok := code.kind()
	if !ok {
		err = ErrUnknownOpcode(code)
		return
	}

	inst.Kind = kind
	switch kindInfo[kind].form {
	case FORM_NNN:
		inst.NNN = code.NNN()
	case FORM_XKK:
		inst.X = code.X()
		inst.KK = code.KK()
	case FORM_XY:
		inst.X = code.X()
		inst.Y = code.Y()
	case FORM_XYN:
		inst.X = code.X()
		inst.Y = code.Y()
		inst.N = code.N()
	case FORM_X:
		inst.X = code.X()
	}

	return
}

// kind identifies the instruction type of a word.
func (code Code) kind() (kind Kind, ok bool) {
	ok = true

	switch code.Group() {
	case 0x0:
		switch code {
		case 0x00E0:
			kind = OP_CLS
		case 0x00EE:
			kind = OP_RET
		default:
			ok = false
		}
	case 0x1:
		kind = OP_JP
	case 0x2:
		kind = OP_CALL
	case 0x3:
		kind = OP_SE_BYTE
	case 0x4:
		kind = OP_SNE_BYTE
	case 0x5:
		kind = OP_SE_REG
		ok = code.N() == 0
	case 0x6:
		kind = OP_LD_BYTE
	case 0x7:
		kind = OP_ADD_BYTE
	case 0x8:
		switch code.N() {
		case 0x0:
			kind = OP_LD_REG
		case 0x1:
			kind = OP_OR
		case 0x2:
			kind = OP_AND
		case 0x3:
			kind = OP_XOR
		case 0x4:
			kind = OP_ADD_REG
		case 0x5:
			kind = OP_SUB
		case 0x6:
			kind = OP_SHR
		case 0x7:
			kind = OP_SUBN
		case 0xE:
			kind = OP_SHL
		default:
			ok = false
		}
	case 0x9:
		kind = OP_SNE_REG
		ok = code.N() == 0
	case 0xA:
		kind = OP_LD_I
	case 0xB:
		kind = OP_JP_V0
	case 0xC:
		kind = OP_RND
	case 0xD:
		kind = OP_DRW
	case 0xE:
		switch code.KK() {
		case 0x9E:
			kind = OP_SKP
		case 0xA1:
			kind = OP_SKNP
		default:
			ok = false
		}
	case 0xF:
		switch code.KK() {
		case 0x07:
			kind = OP_LD_VX_DT
		case 0x0A:
			kind = OP_LD_VX_K
		case 0x15:
			kind = OP_LD_DT_VX
		case 0x18:
			kind = OP_LD_ST_VX
		case 0x1E:
			kind = OP_ADD_I
		case 0x29:
			kind = OP_LD_F
		case 0x33:
			kind = OP_LD_B
		case 0x55:
			kind = OP_LD_MEM_REGS
		case 0x65:
			kind = OP_LD_REGS_MEM
		default:
			ok = false
		}
	}

	return
}

// Encode returns the instruction word. Operands are truncated to their
// field widths.
func (inst Instruction) Encode() Code {
	if !inst.Kind.Valid() {
		panic("unknown instruction kind")
	}

	info := kindInfo[inst.Kind]
	word := info.pattern

	switch info.form {
	case FORM_NNN:
		word |= inst.NNN & 0x0fff
	case FORM_XKK:
		word |= uint16(inst.X&0xf)<<8 | uint16(inst.KK)
	case FORM_XY:
		word |= uint16(inst.X&0xf)<<8 | uint16(inst.Y&0xf)<<4
	case FORM_XYN:
		word |= uint16(inst.X&0xf)<<8 | uint16(inst.Y&0xf)<<4 | uint16(inst.N&0xf)
	case FORM_X:
		word |= uint16(inst.X&0xf) << 8
	}

	return Code(word)
}

// String returns the assembly language representation of this instruction.
func (inst Instruction) String() (out string) {
	name := inst.Kind.String()
	if !inst.Kind.Valid() {
		return name
	}

	switch inst.Kind {
	case OP_JP_V0:
		out = fmt.Sprintf("%v v0 0x%03x", name, inst.NNN)
	case OP_LD_I:
		out = fmt.Sprintf("%v i 0x%03x", name, inst.NNN)
	case OP_LD_VX_DT:
		out = fmt.Sprintf("%v v%x dt", name, inst.X)
	case OP_LD_VX_K:
		out = fmt.Sprintf("%v v%x k", name, inst.X)
	case OP_LD_DT_VX:
		out = fmt.Sprintf("%v dt v%x", name, inst.X)
	case OP_LD_ST_VX:
		out = fmt.Sprintf("%v st v%x", name, inst.X)
	case OP_ADD_I:
		out = fmt.Sprintf("%v i v%x", name, inst.X)
	case OP_LD_F:
		out = fmt.Sprintf("%v f v%x", name, inst.X)
	case OP_LD_B:
		out = fmt.Sprintf("%v b v%x", name, inst.X)
	case OP_LD_MEM_REGS:
		out = fmt.Sprintf("%v [i] v%x", name, inst.X)
	case OP_LD_REGS_MEM:
		out = fmt.Sprintf("%v v%x [i]", name, inst.X)
	default:
		switch kindInfo[inst.Kind].form {
		case FORM_NONE:
			out = name
		case FORM_NNN:
			out = fmt.Sprintf("%v 0x%03x", name, inst.NNN)
		case FORM_XKK:
			out = fmt.Sprintf("%v v%x 0x%02x", name, inst.X, inst.KK)
		case FORM_XY:
			out = fmt.Sprintf("%v v%x v%x", name, inst.X, inst.Y)
		case FORM_XYN:
			out = fmt.Sprintf("%v v%x v%x %d", name, inst.X, inst.Y, inst.N)
		case FORM_X:
			out = fmt.Sprintf("%v v%x", name, inst.X)
		}
	}

	return
}
