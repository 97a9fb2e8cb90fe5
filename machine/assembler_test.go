package machine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, program ...string) (prog *Program) {
	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal(0, len(prog.Binary()))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0x200", asm.Equate["ROM_BASE"])
	assert.Equal("0x50", asm.Equate["FONT_BASE"])
	assert.Equal("5", asm.Equate["FONT_HEIGHT"])
	assert.Equal("0x1000", asm.Equate["MEMORY_SIZE"])
	assert.Equal("64", asm.Equate["VIDEO_WIDTH"])
	assert.Equal("32", asm.Equate["VIDEO_HEIGHT"])
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line string
		code uint16
	}){
		{"cls", 0x00E0},
		{"RET", 0x00EE},
		{"jp 0x2a0", 0x12A0},
		{"jp v0, 0x300", 0xB300},
		{"call 0xffe", 0x2FFE},
		{"se v3, 0x12", 0x3312},
		{"sne v1 -1", 0x41FF},
		{"se v1 v2", 0x5120},
		{"sne v1 v2", 0x9120},
		{"ld v1, 0x22", 0x6122},
		{"ld v1 v2", 0x8120},
		{"ld V1 VA", 0x81A0},
		{"add v1 1", 0x7101},
		{"add v1 v2", 0x8124},
		{"add i v4", 0xF41E},
		{"or v1 v2", 0x8121},
		{"and v1 v2", 0x8122},
		{"xor v1 v2", 0x8123},
		{"sub v1 v2", 0x8125},
		{"shr v5", 0x8506},
		{"shr v5 v6", 0x8566},
		{"subn v1 v2", 0x8127},
		{"shl v5", 0x850E},
		{"ld i 0x300", 0xA300},
		{"rnd v9 0x0f", 0xC90F},
		{"drw v0 v1 5", 0xD015},
		{"drw v0 v1 0", 0xD010},
		{"skp v3", 0xE39E},
		{"sknp v3", 0xE3A1},
		{"ld v2 dt", 0xF207},
		{"ld v3 K", 0xF30A},
		{"ld dt v2", 0xF215},
		{"ld st v1", 0xF118},
		{"ld f v0", 0xF029},
		{"ld B v3", 0xF333},
		{"ld [i] v3", 0xF355},
		{"ld vf [I]", 0xFF65},
		{"ld v0 'A'", 0x6041},
		{"ld v0 ' '", 0x6020},
		{"ld v0 ~0", 0x60FF},
	}

	for _, entry := range table {
		prog := assemble(t, entry.line)
		assert.Equal([]byte{byte(entry.code >> 8), byte(entry.code)}, prog.Binary(), entry.line)
	}
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".byte 0xF0 0x90, 0x90",
		".byte -0x80 'H' 'i'",
		".word 0x1234 -1",
		"cls",
	)

	expected := []byte{
		0xF0, 0x90, 0x90,
		0x80, 'H', 'i',
		0x12, 0x34, 0xFF, 0xFF,
		0x00, 0xE0,
	}
	assert.Equal(expected, prog.Binary())

	assert.Equal(4, len(prog.Opcodes))
	assert.Equal(ROM_BASE+3, prog.Opcodes[1].Addr)
	assert.Equal(ROM_BASE+10, prog.Opcodes[3].Addr)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".equ SPEED 3",
		".equ PLAYER v4",
		"ld PLAYER SPEED",
		"add PLAYER $(SPEED * 2)",
		"ld i $(FONT_BASE + 5 * FONT_HEIGHT)",
		"ld v0 $(LINENO)",
	)

	expected := []Opcode{
		{3, 0x200, []string{"ld", "v4", "3"}, []byte{0x64, 0x03}, ""},
		{4, 0x202, []string{"add", "v4", "6"}, []byte{0x74, 0x06}, ""},
		{5, 0x204, []string{"ld", "i", "105"}, []byte{0xA0, 0x69}, ""},
		{6, 0x206, []string{"ld", "v0", "6"}, []byte{0x60, 0x06}, ""},
	}
	assert.Equal(expected, prog.Opcodes)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("LIVES", "3")
	asm.Predefine("LIVES", "5")
	asm.Predefine("HERO", "va")

	prog, err := asm.Parse(strings.NewReader("ld HERO LIVES"))
	assert.NoError(err)
	assert.Equal([]byte{0x6A, 0x05}, prog.Binary())

	// Predefines survive to the next parse.
	prog, err = asm.Parse(strings.NewReader(".equ HERO 1\nld v0 LIVES"))
	assert.ErrorIs(err, ErrEquateDuplicate)
	assert.Nil(prog)
}

func TestAssemblerLabel(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"start:",
		"    call routine ; forward reference",
		"    jp start",
		"loop: jp loop",
		"routine: ld i sprite",
		"    ret",
		"sprite: .byte 0xF0 0x90",
		"first: second:",
	)

	expected := []byte{
		0x22, 0x06,
		0x12, 0x00,
		0x12, 0x04,
		0xA2, 0x0A,
		0x00, 0xEE,
		0xF0, 0x90,
	}
	assert.Equal(expected, prog.Binary())

	assert.Equal("routine", prog.Opcodes[0].LinkLabel)
	assert.Equal(2, prog.Opcodes[0].LineNo)
}

func TestAssemblerLabelTable(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("cls\nhere: there:\njp here\nend:"))
	assert.NoError(err)

	assert.Equal(map[string]int{
		"here":  0x202,
		"there": 0x202,
		"end":   0x204,
	}, asm.Label)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".macro PLOT x y",
		"ld v0 x",
		"ld v1 y",
		"drw v0 v1 FONT_HEIGHT",
		".endm",
		"PLOT 1 2",
		"PLOT $(VIDEO_WIDTH // 2) 0x10",
	)

	expected := []Opcode{
		{2, 0x200, []string{"ld", "v0", "1"}, []byte{0x60, 0x01}, ""},
		{3, 0x202, []string{"ld", "v1", "2"}, []byte{0x61, 0x02}, ""},
		{4, 0x204, []string{"drw", "v0", "v1", "5"}, []byte{0xD0, 0x15}, ""},
		{2, 0x206, []string{"ld", "v0", "32"}, []byte{0x60, 0x20}, ""},
		{3, 0x208, []string{"ld", "v1", "0x10"}, []byte{0x61, 0x10}, ""},
		{4, 0x20a, []string{"drw", "v0", "v1", "5"}, []byte{0xD0, 0x15}, ""},
	}
	assert.Equal(expected, prog.Opcodes)
}

func TestAssemblerMacroLocalLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro WAIT reg",
		"@loop: ld reg dt",
		"se reg 0",
		"jp @loop",
		".endm",
		"WAIT v3",
		"WAIT v4",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []byte{
		0xF3, 0x07, 0x33, 0x00, 0x12, 0x00,
		0xF4, 0x07, 0x34, 0x00, 0x12, 0x06,
	}
	assert.Equal(expected, prog.Binary())
	assert.Equal(2, len(asm.Label))
}

func TestAssemblerMacroNested(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".macro SET reg value",
		"ld reg value",
		".endm",
		".macro PAIR value",
		"SET v0 value",
		"SET v1 $(~value & 0xff)",
		".endm",
		"PAIR 0x0f",
	)

	assert.Equal([]byte{0x60, 0x0F, 0x61, 0xF0}, prog.Binary())
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"cls\njp nowhere", 2, ErrLabelMissing("nowhere")},
		{"ld v0 nothing", 1, ErrParseNumber("nothing")},
		{"ld v0 $(\"aaa\")", 1, ErrParseExpression("\"aaa\"")},
		{"ld v0 0x100", 1, ErrValueRange},
		{"ld v0 -0x81", 1, ErrValueRange},
		{"ld vg 1", 1, ErrOpcodeInvalid},
		{"ld dt 1", 1, ErrOpcodeInvalid},
		{"ld v0", 1, ErrOpcodeValueMissing},
		{"add v0", 1, ErrOpcodeValueMissing},
		{"add 1 v0", 1, ErrRegisterInvalid},
		{"add i 1", 1, ErrRegisterInvalid},
		{"cls 1", 1, ErrOpcodeExtraArgs},
		{"ret\nret ret", 2, ErrOpcodeExtraArgs},
		{"jp", 1, ErrOpcodeValueMissing},
		{"jp v1 0x300", 1, ErrRegisterInvalid},
		{"jp 0x1000", 1, ErrValueRange},
		{"call 1 2", 1, ErrOpcodeExtraArgs},
		{"se 1 v0", 1, ErrRegisterInvalid},
		{"or v0 1", 1, ErrRegisterInvalid},
		{"shl", 1, ErrOpcodeValueMissing},
		{"rnd x 1", 1, ErrRegisterInvalid},
		{"drw v0 v1 16", 1, ErrValueRange},
		{"drw v0 x 1", 1, ErrRegisterInvalid},
		{"skp 1", 1, ErrRegisterInvalid},
		{".byte", 1, ErrOpcodeValueMissing},
		{".byte 256", 1, ErrValueRange},
		{".word 0x10000", 1, ErrValueRange},
		{"bogus v0", 1, ErrInstructionInvalid},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro\n.endm", 1, ErrMacroSyntax},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\nld v0 1\n", 2, ErrMacroLonely},
		{".macro A r\nld r 1\n.endm\ncls\nA vz\n", 5, ErrOpcodeInvalid},
		{strings.Repeat("cls\n", ROM_LIMIT/2+1), ROM_LIMIT/2 + 1, ErrImageTooLarge},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		if assert.Error(err, entry.prog) {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
			assert.ErrorIs(err, entry.err, entry.prog)
		}
	}
}

func TestAssemblerErrMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	program := []string{
		".macro BAD reg",
		"cls",
		"ld reg 1",
		".endm",
		"BAD v0",
		"BAD q",
	}

	_, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))

	var em *ErrMacro
	if assert.True(errors.As(err, &em)) {
		assert.Equal("BAD", em.Macro)
		assert.Equal(3, em.Line)
	}

	var se *ErrSyntax
	if assert.True(errors.As(err, &se)) {
		assert.Equal(6, se.LineNo)
	}
}

func TestAssemblerReuse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Parse(strings.NewReader("a: jp a\n.macro M\ncls\n.endm\n"))
	assert.NoError(err)

	// Labels and macros from the previous parse are forgotten.
	prog, err := asm.Parse(strings.NewReader(".macro M\nret\n.endm\nM\na: jp a"))
	assert.NoError(err)
	assert.Equal([]byte{0x00, 0xEE, 0x12, 0x02}, prog.Binary())
}
