package machine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeFields(t *testing.T) {
	assert := assert.New(t)

	code := Code(0xD4A7)
	assert.Equal(byte(0xD), code.Group())
	assert.Equal(byte(0x4), code.X())
	assert.Equal(byte(0xA), code.Y())
	assert.Equal(byte(0x7), code.N())
	assert.Equal(byte(0xA7), code.KK())
	assert.Equal(uint16(0x4A7), code.NNN())
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		inst Instruction
		text string
	}){
		{0x00E0, Instruction{Kind: OP_CLS}, "cls"},
		{0x00EE, Instruction{Kind: OP_RET}, "ret"},
		{0x1234, Instruction{Kind: OP_JP, NNN: 0x234}, "jp 0x234"},
		{0x2FFE, Instruction{Kind: OP_CALL, NNN: 0xFFE}, "call 0xffe"},
		{0x3A12, Instruction{Kind: OP_SE_BYTE, X: 0xA, KK: 0x12}, "se va 0x12"},
		{0x4B34, Instruction{Kind: OP_SNE_BYTE, X: 0xB, KK: 0x34}, "sne vb 0x34"},
		{0x5120, Instruction{Kind: OP_SE_REG, X: 1, Y: 2}, "se v1 v2"},
		{0x63FF, Instruction{Kind: OP_LD_BYTE, X: 3, KK: 0xFF}, "ld v3 0xff"},
		{0x7401, Instruction{Kind: OP_ADD_BYTE, X: 4, KK: 1}, "add v4 0x01"},
		{0x8560, Instruction{Kind: OP_LD_REG, X: 5, Y: 6}, "ld v5 v6"},
		{0x8561, Instruction{Kind: OP_OR, X: 5, Y: 6}, "or v5 v6"},
		{0x8562, Instruction{Kind: OP_AND, X: 5, Y: 6}, "and v5 v6"},
		{0x8563, Instruction{Kind: OP_XOR, X: 5, Y: 6}, "xor v5 v6"},
		{0x8564, Instruction{Kind: OP_ADD_REG, X: 5, Y: 6}, "add v5 v6"},
		{0x8565, Instruction{Kind: OP_SUB, X: 5, Y: 6}, "sub v5 v6"},
		{0x8566, Instruction{Kind: OP_SHR, X: 5, Y: 6}, "shr v5 v6"},
		{0x8567, Instruction{Kind: OP_SUBN, X: 5, Y: 6}, "subn v5 v6"},
		{0x856E, Instruction{Kind: OP_SHL, X: 5, Y: 6}, "shl v5 v6"},
		{0x9780, Instruction{Kind: OP_SNE_REG, X: 7, Y: 8}, "sne v7 v8"},
		{0xA050, Instruction{Kind: OP_LD_I, NNN: 0x050}, "ld i 0x050"},
		{0xB300, Instruction{Kind: OP_JP_V0, NNN: 0x300}, "jp v0 0x300"},
		{0xC90F, Instruction{Kind: OP_RND, X: 9, KK: 0x0F}, "rnd v9 0x0f"},
		{0xD125, Instruction{Kind: OP_DRW, X: 1, Y: 2, N: 5}, "drw v1 v2 5"},
		{0xE39E, Instruction{Kind: OP_SKP, X: 3}, "skp v3"},
		{0xE3A1, Instruction{Kind: OP_SKNP, X: 3}, "sknp v3"},
		{0xF207, Instruction{Kind: OP_LD_VX_DT, X: 2}, "ld v2 dt"},
		{0xF20A, Instruction{Kind: OP_LD_VX_K, X: 2}, "ld v2 k"},
		{0xF215, Instruction{Kind: OP_LD_DT_VX, X: 2}, "ld dt v2"},
		{0xF218, Instruction{Kind: OP_LD_ST_VX, X: 2}, "ld st v2"},
		{0xF21E, Instruction{Kind: OP_ADD_I, X: 2}, "add i v2"},
		{0xF229, Instruction{Kind: OP_LD_F, X: 2}, "ld f v2"},
		{0xF233, Instruction{Kind: OP_LD_B, X: 2}, "ld b v2"},
		{0xFF55, Instruction{Kind: OP_LD_MEM_REGS, X: 0xF}, "ld [i] vf"},
		{0xFF65, Instruction{Kind: OP_LD_REGS_MEM, X: 0xF}, "ld vf [i]"},
	}

	for _, entry := range table {
		inst, err := entry.code.Decode()
		assert.NoError(err, entry.text)
		assert.Equal(entry.inst, inst, entry.text)
		assert.Equal(entry.text, inst.String())
		assert.Equal(entry.code, inst.Encode(), entry.text)
	}
}

func TestDecodeUnknown(t *testing.T) {
	assert := assert.New(t)

	table := []Code{
		0x0000, // SYS calls are not supported
		0x0123,
		0x00E1,
		0x00FF,
		0x5121, // 5xy0 requires a zero low nibble
		0x9121, // 9xy0 requires a zero low nibble
		0x8008,
		0x800D,
		0x800F,
		0x8ABF,
		0xE09F,
		0xE0A2,
		0xF000,
		0xF066,
		0xFFFF,
	}

	for _, code := range table {
		_, err := code.Decode()
		assert.Error(err)
		assert.True(errors.Is(err, ErrUnknownOpcode(0)), "%04x", uint16(code))

		var unknown ErrUnknownOpcode
		assert.True(errors.As(err, &unknown))
		assert.Equal(ErrUnknownOpcode(code), unknown)
	}
}

func TestKindString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("drw", OP_DRW.String())
	assert.Equal("Kind(99)", Kind(99).String())
	assert.False(Kind(99).Valid())
	assert.False(Kind(-1).Valid())
	assert.True(OP_LD_REGS_MEM.Valid())
	assert.Equal("Kind(99)", Instruction{Kind: Kind(99)}.String())
	assert.Panics(func() { Instruction{Kind: Kind(99)}.Encode() })
}

func FuzzDecode(f *testing.F) {
	for _, code := range []uint16{0x0000, 0x00E0, 0x00EE, 0x8AB4, 0xD125, 0xF265, 0xFFFF} {
		f.Add(code)
	}

	f.Fuzz(func(t *testing.T, word uint16) {
		assert := assert.New(t)

		code := Code(word)
		inst, err := code.Decode()
		if err != nil {
			assert.Equal(ErrUnknownOpcode(word), err)
			return
		}

		assert.True(inst.Kind.Valid())
		assert.Equal(code, inst.Encode(), "0x%04x %v", word, inst)

		// The text form assembles back to the same word.
		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(inst.String()))
		if assert.NoError(err, inst.String()) {
			assert.Equal([]byte{byte(word >> 8), byte(word)}, prog.Binary(), inst.String())
		}
	})
}
