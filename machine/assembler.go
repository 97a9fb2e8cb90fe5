package machine

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Assembler is a single pass macro assembler for the CHIP-8 instruction set.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Count of macro expansions, for '@' local labels.
}

// Predefine defines a new equate or redefines an existing equate, applied
// at the start of every Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// sysEquate returns the equates every program starts with.
func sysEquate() (equ map[string]string) {
	equ = maps.Collect((&Machine{}).Defines())
	equ["LINENO"] = "0"
	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if len(word) > 1 && word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 0 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	value, err = strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// number returns the value of a word, which must be in [low, high].
func (asm *Assembler) number(word string, low, high int64) (value int64, err error) {
	value, err = asm.valueOf(word)
	if err != nil {
		return
	}

	if value < low || value > high {
		err = fmt.Errorf("%w: %v", ErrValueRange, word)
		return
	}

	return
}

// register returns the register index for a 'vN' word.
func register(word string) (reg byte, ok bool) {
	word = strings.ToLower(word)
	if len(word) != 2 || word[0] != 'v' {
		return
	}

	n, err := strconv.ParseUint(word[1:], 16, 4)
	if err != nil {
		return
	}

	return byte(n), true
}

var labelRegexp = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// address returns the address value of a word, or the label to link it to.
func (asm *Assembler) address(word string) (nnn uint16, label string, err error) {
	if labelRegexp.MatchString(word) {
		label = word
		return
	}

	value, err := asm.number(word, 0, MEMORY_SIZE-1)
	if err != nil {
		return
	}

	nnn = uint16(value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	charRegexp  = regexp.MustCompile(`'\\?[^']'`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine parses a single line into words, handling equates, labels and
// macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRegexp.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "0":
				str = "\000"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	line = strings.ReplaceAll(line, ",", " ")
	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the load address of the next generated byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return ROM_BASE
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Data)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = sysEquate()
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if asm.currentAddr()-ROM_BASE > ROM_LIMIT {
		err = ErrImageTooLarge
		return
	}

	// Final linking of address labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if len(op.Data) != 2 {
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		if addr >= MEMORY_SIZE {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = fmt.Errorf("%w: %v", ErrValueRange, label)
			return
		}
		op.Data[0] |= byte(addr>>8) & 0xf
		op.Data[1] |= byte(addr)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// checkArgs verifies the number of arguments after the mnemonic.
func checkArgs(words []string, low, high int) (err error) {
	switch {
	case len(words)-1 < low:
		err = ErrOpcodeValueMissing
	case len(words)-1 > high:
		err = ErrOpcodeExtraArgs
	}
	return
}

// aluMap maps register-register ALU mnemonics.
var aluMap = map[string]Kind{
	"or":   OP_OR,
	"and":  OP_AND,
	"xor":  OP_XOR,
	"sub":  OP_SUB,
	"subn": OP_SUBN,
	"shr":  OP_SHR,
	"shl":  OP_SHL,
}

// ldMap maps the special 'ld' forms, keyed by their lowercase operands
// with the register replaced by 'vx'.
var ldMap = map[[2]string]Kind{
	{"vx", "dt"}:  OP_LD_VX_DT,
	{"vx", "k"}:   OP_LD_VX_K,
	{"dt", "vx"}:  OP_LD_DT_VX,
	{"st", "vx"}:  OP_LD_ST_VX,
	{"f", "vx"}:   OP_LD_F,
	{"b", "vx"}:   OP_LD_B,
	{"[i]", "vx"}: OP_LD_MEM_REGS,
	{"vx", "[i]"}: OP_LD_REGS_MEM,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	var inst Instruction
	emit := true

	mnemonic := strings.ToLower(words[0])
	switch mnemonic {
	case ".byte":
		emit = false
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value int64
			value, err = asm.number(word, -0x80, 0xff)
			if err != nil {
				return
			}
			data = append(data, byte(value))
		}
	case ".word":
		emit = false
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, word := range words[1:] {
			var value int64
			value, err = asm.number(word, -0x8000, 0xffff)
			if err != nil {
				return
			}
			data = append(data, byte(value>>8), byte(value))
		}
	case "cls", "ret":
		if err = checkArgs(words, 0, 0); err != nil {
			return
		}
		inst.Kind = OP_CLS
		if mnemonic == "ret" {
			inst.Kind = OP_RET
		}
	case "jp":
		if err = checkArgs(words, 1, 2); err != nil {
			return
		}
		inst.Kind = OP_JP
		target := words[1]
		if len(words) == 3 {
			reg, ok := register(words[1])
			if !ok || reg != 0 {
				err = ErrRegisterInvalid
				return
			}
			inst.Kind = OP_JP_V0
			target = words[2]
		}
		inst.NNN, label, err = asm.address(target)
	case "call":
		if err = checkArgs(words, 1, 1); err != nil {
			return
		}
		inst.Kind = OP_CALL
		inst.NNN, label, err = asm.address(words[1])
	case "se", "sne":
		if err = checkArgs(words, 2, 2); err != nil {
			return
		}
		var ok bool
		inst.X, ok = register(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		if inst.Y, ok = register(words[2]); ok {
			inst.Kind = OP_SE_REG
			if mnemonic == "sne" {
				inst.Kind = OP_SNE_REG
			}
			break
		}
		inst.Kind = OP_SE_BYTE
		if mnemonic == "sne" {
			inst.Kind = OP_SNE_BYTE
		}
		inst.KK, err = asm.byteValue(words[2])
	case "ld":
		if err = checkArgs(words, 2, 2); err != nil {
			return
		}
		inst, label, err = asm.parseLoad(words[1], words[2])
	case "add":
		if err = checkArgs(words, 2, 2); err != nil {
			return
		}
		var ok bool
		if strings.ToLower(words[1]) == "i" {
			inst.Kind = OP_ADD_I
			inst.X, ok = register(words[2])
			if !ok {
				err = ErrRegisterInvalid
			}
			break
		}
		inst.X, ok = register(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		if inst.Y, ok = register(words[2]); ok {
			inst.Kind = OP_ADD_REG
			break
		}
		inst.Kind = OP_ADD_BYTE
		inst.KK, err = asm.byteValue(words[2])
	case "or", "and", "xor", "sub", "subn", "shr", "shl":
		low := 2
		if mnemonic == "shr" || mnemonic == "shl" {
			low = 1
		}
		if err = checkArgs(words, low, 2); err != nil {
			return
		}
		inst.Kind = aluMap[mnemonic]
		var ok bool
		inst.X, ok = register(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		if len(words) == 3 {
			inst.Y, ok = register(words[2])
			if !ok {
				err = ErrRegisterInvalid
				return
			}
		}
	case "rnd":
		if err = checkArgs(words, 2, 2); err != nil {
			return
		}
		inst.Kind = OP_RND
		var ok bool
		inst.X, ok = register(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		inst.KK, err = asm.byteValue(words[2])
	case "drw":
		if err = checkArgs(words, 3, 3); err != nil {
			return
		}
		inst.Kind = OP_DRW
		var ok bool
		inst.X, ok = register(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		inst.Y, ok = register(words[2])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var n int64
		n, err = asm.number(words[3], 0, 0xf)
		inst.N = byte(n)
	case "skp", "sknp":
		if err = checkArgs(words, 1, 1); err != nil {
			return
		}
		inst.Kind = OP_SKP
		if mnemonic == "sknp" {
			inst.Kind = OP_SKNP
		}
		var ok bool
		inst.X, ok = register(words[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
	default:
		err = ErrInstructionInvalid
		return
	}

	if err != nil {
		return
	}

	if emit {
		code := inst.Encode()
		data = []byte{byte(code >> 8), byte(code)}
	}

	return
}

// byteValue returns a byte immediate. Negative values are two's complement.
func (asm *Assembler) byteValue(word string) (kk byte, err error) {
	value, err := asm.number(word, -0x80, 0xff)
	kk = byte(value)
	return
}

// parseLoad decodes the operands of the many 'ld' forms.
func (asm *Assembler) parseLoad(dst, src string) (inst Instruction, label string, err error) {
	key := [2]string{strings.ToLower(dst), strings.ToLower(src)}

	dst_reg, dst_is_reg := register(dst)
	src_reg, src_is_reg := register(src)
	if dst_is_reg {
		key[0] = "vx"
		inst.X = dst_reg
	}
	if src_is_reg && !dst_is_reg {
		key[1] = "vx"
		inst.X = src_reg
	}

	if kind, ok := ldMap[key]; ok {
		inst.Kind = kind
		return
	}

	switch {
	case key[0] == "i":
		inst.Kind = OP_LD_I
		inst.NNN, label, err = asm.address(src)
	case dst_is_reg && src_is_reg:
		inst.Kind = OP_LD_REG
		inst.Y = src_reg
	case dst_is_reg:
		inst.Kind = OP_LD_BYTE
		inst.KK, err = asm.byteValue(src)
	default:
		err = ErrOpcodeInvalid
	}

	return
}
