package machine

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"
)

// Memory map and device geometry.
const (
	MEMORY_SIZE    = 4096                   // Size of the address space.
	FONT_BASE      = 0x050                  // Address of the font table.
	FONT_GLYPHS    = 16                     // Number of font glyphs.
	FONT_HEIGHT    = 5                      // Rows per font glyph.
	ROM_BASE       = 0x200                  // Address programs are loaded at.
	ROM_LIMIT      = MEMORY_SIZE - ROM_BASE // Largest loadable image.
	REGISTER_COUNT = 16                     // V0 through VF.
	KEY_COUNT      = 16                     // Keys 0 through F.
	VIDEO_WIDTH    = 64                     // Framebuffer columns.
	VIDEO_HEIGHT   = 32                     // Framebuffer rows.
	SPRITE_WIDTH   = 8                      // Pixels per sprite row.
)

// VF is the flag register.
const VF = 0xf

var _machine_defines = map[string]string{
	"MEMORY_SIZE":  fmt.Sprintf("0x%x", MEMORY_SIZE),
	"FONT_BASE":    fmt.Sprintf("0x%x", FONT_BASE),
	"FONT_HEIGHT":  fmt.Sprintf("%d", FONT_HEIGHT),
	"ROM_BASE":     fmt.Sprintf("0x%x", ROM_BASE),
	"VIDEO_WIDTH":  fmt.Sprintf("%d", VIDEO_WIDTH),
	"VIDEO_HEIGHT": fmt.Sprintf("%d", VIDEO_HEIGHT),
}

// Machine is the CHIP-8 interpreter state.
//
// A Machine performs no locking; all calls must come from a single owner.
type Machine struct {
	Verbose bool       // Set to enable verbose logging.
	Random  ByteSource // Source of random bytes for RND.

	Memory [MEMORY_SIZE]byte    // Address space.
	V      [REGISTER_COUNT]byte // General purpose registers.
	I      uint16               // Index register.
	PC     uint16               // Program counter.
	Stack  Stack                // Call stack.
	Delay  byte                 // Delay timer.
	Sound  byte                 // Sound timer.

	Keypad [KEY_COUNT]bool                  // Key states, set by the host.
	Video  [VIDEO_WIDTH * VIDEO_HEIGHT]bool // Framebuffer, row major.
	Redraw bool                             // Set when Video has changed.

	Ticks int // Instructions executed since reset.
}

// NewMachine creates a new machine with a randomly seeded byte source.
func NewMachine() (m *Machine) {
	m = &Machine{}
	m.Reset()

	return
}

// Reset the machine state.
// - Clears memory, registers, stack, timers, keypad and video.
// - Installs the font table.
// - Sets the program counter to the ROM entry point.
// - Requests a redraw, so the first frame is always painted.
// - Installs a random byte source, if none is set.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine: reset")
	}

	if m.Random == nil {
		m.Random = NewRandom(rand.Uint64())
	}

	clear(m.Memory[:])
	clear(m.V[:])
	m.I = 0
	m.PC = ROM_BASE
	m.Stack.Reset()
	m.Delay = 0
	m.Sound = 0
	clear(m.Keypad[:])
	clear(m.Video[:])
	m.Redraw = true
	m.Ticks = 0

	copy(m.Memory[FONT_BASE:], font[:])
}

// Defines for the machine.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Load copies a program image into memory at ROM_BASE.
// Images larger than ROM_LIMIT are rejected without modifying memory.
func (m *Machine) Load(image []byte) (err error) {
	if len(image) > ROM_LIMIT {
		err = ErrImageTooLarge
		return
	}

	copy(m.Memory[ROM_BASE:], image)

	if m.Verbose {
		log.Printf("machine: loaded %d bytes", len(image))
	}

	return
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text += fmt.Sprintf("   pc: %03X\n", m.PC)
	text += fmt.Sprintf("    i: %03X\n", m.I)
	for n, v := range m.V {
		text += fmt.Sprintf("   v%X: %02X\n", n, v)
	}
	text += fmt.Sprintf("   dt: %02X\n", m.Delay)
	text += fmt.Sprintf("   st: %02X\n", m.Sound)

	stack := "---"
	if top, ok := m.Stack.Peek(); ok {
		stack = fmt.Sprintf("%03X", top)
	}
	text += fmt.Sprintf("stack: %v (%d)\n", stack, m.Stack.Pointer)

	return
}

// TickTimers decrements the delay and sound timers, stopping at zero.
// Hosts call this at 60Hz, independent of the instruction rate.
func (m *Machine) TickTimers() {
	if m.Delay > 0 {
		m.Delay--
	}

	if m.Sound > 0 {
		m.Sound--
	}
}

// SetKey sets the pressed state of a key.
// It panics if key is not in the range 0 through 15.
func (m *Machine) SetKey(key byte, pressed bool) {
	if int(key) >= KEY_COUNT {
		panic(f("key %d out of range", key))
	}

	m.Keypad[key] = pressed
}

// Pixel returns the state of the framebuffer cell at (x, y).
func (m *Machine) Pixel(x, y int) bool {
	return m.Video[y*VIDEO_WIDTH+x]
}

// ConsumeRedraw returns the redraw flag, and clears it.
func (m *Machine) ConsumeRedraw() (redraw bool) {
	redraw = m.Redraw
	m.Redraw = false
	return
}

// Beeping returns true while the sound timer is running.
func (m *Machine) Beeping() bool {
	return m.Sound > 0
}

// Fetch reads the instruction word at PC, and advances PC past it.
func (m *Machine) Fetch() (code Code, err error) {
	data, err := m.read(int(m.PC), 2)
	if err != nil {
		return
	}

	code = Code(uint16(data[0])<<8 | uint16(data[1]))
	m.PC += 2

	return
}

// Step executes a single instruction.
func (m *Machine) Step() (err error) {
	pc := m.PC

	code, err := m.Fetch()
	if err != nil {
		return
	}

	inst, err := code.Decode()
	if err != nil {
		return
	}

	if m.Verbose {
		log.Printf("%03x: %v", pc, inst)
	}

	return m.Execute(inst)
}

// read returns a view of size bytes of memory at addr.
func (m *Machine) read(addr int, size int) (data []byte, err error) {
	if addr < 0 || addr+size > MEMORY_SIZE {
		err = ErrAddress(max(addr, MEMORY_SIZE))
		return
	}

	data = m.Memory[addr : addr+size]
	return
}

// write returns a writable view of size bytes of memory at addr.
// The reserved region below ROM_BASE is never writable.
func (m *Machine) write(addr int, size int) (data []byte, err error) {
	if addr < ROM_BASE {
		err = errors.Join(ErrMemoryReserved, ErrAddress(addr))
		return
	}

	return m.read(addr, size)
}

// skipIf advances PC past the next instruction when cond is true.
func (m *Machine) skipIf(cond bool) {
	if cond {
		m.PC += 2
	}
}

// key returns the pressed state of the key numbered by register x.
func (m *Machine) key(x byte) (pressed bool, err error) {
	key := m.V[x]
	if int(key) >= KEY_COUNT {
		err = errors.Join(ErrKeyInvalid, fmt.Errorf("v%x=%#02x", x, key))
		return
	}

	pressed = m.Keypad[key]
	return
}

// flag converts a condition to a VF value.
func flag(cond bool) byte {
	if cond {
		return 1
	}
	return 0
}

// Execute executes a single decoded instruction.
func (m *Machine) Execute(inst Instruction) (err error) {
	x, y := inst.X, inst.Y
	v := &m.V

	switch inst.Kind {
	case OP_CLS:
		clear(m.Video[:])
		m.Redraw = true
	case OP_RET:
		pc, ok := m.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		m.PC = pc
	case OP_JP:
		m.PC = inst.NNN
	case OP_CALL:
		if !m.Stack.Push(m.PC) {
			err = ErrStackOverflow
			return
		}
		m.PC = inst.NNN
	case OP_SE_BYTE:
		m.skipIf(v[x] == inst.KK)
	case OP_SNE_BYTE:
		m.skipIf(v[x] != inst.KK)
	case OP_SE_REG:
		m.skipIf(v[x] == v[y])
	case OP_LD_BYTE:
		v[x] = inst.KK
	case OP_ADD_BYTE:
		v[x] += inst.KK
	case OP_LD_REG:
		v[x] = v[y]
	case OP_OR:
		v[x] |= v[y]
	case OP_AND:
		v[x] &= v[y]
	case OP_XOR:
		v[x] ^= v[y]
	case OP_ADD_REG:
		sum := uint16(v[x]) + uint16(v[y])
		v[x] = byte(sum)
		v[VF] = flag(sum > 0xff)
	case OP_SUB:
		borrow := v[x] < v[y]
		v[x] -= v[y]
		v[VF] = flag(!borrow)
	case OP_SHR:
		out := v[x] & 1
		v[x] >>= 1
		v[VF] = out
	case OP_SUBN:
		borrow := v[y] < v[x]
		v[x] = v[y] - v[x]
		v[VF] = flag(!borrow)
	case OP_SHL:
		out := v[x] >> 7
		v[x] <<= 1
		v[VF] = out
	case OP_SNE_REG:
		m.skipIf(v[x] != v[y])
	case OP_LD_I:
		m.I = inst.NNN
	case OP_JP_V0:
		m.PC = inst.NNN + uint16(v[0])
	case OP_RND:
		v[x] = m.Random.Byte() & inst.KK
	case OP_DRW:
		err = m.draw(v[x], v[y], inst.N)
		if err != nil {
			return
		}
	case OP_SKP, OP_SKNP:
		var pressed bool
		pressed, err = m.key(x)
		if err != nil {
			return
		}
		m.skipIf(pressed == (inst.Kind == OP_SKP))
	case OP_LD_VX_DT:
		v[x] = m.Delay
	case OP_LD_VX_K:
		key, ok := m.firstKey()
		if !ok {
			// Execute again on the next step.
			m.PC -= 2
			break
		}
		v[x] = key
	case OP_LD_DT_VX:
		m.Delay = v[x]
	case OP_LD_ST_VX:
		m.Sound = v[x]
	case OP_ADD_I:
		m.I += uint16(v[x])
	case OP_LD_F:
		m.I = FontAddress(v[x])
	case OP_LD_B:
		var digits []byte
		digits, err = m.write(int(m.I), 3)
		if err != nil {
			return
		}
		digits[0] = v[x] / 100
		digits[1] = (v[x] / 10) % 10
		digits[2] = v[x] % 10
	case OP_LD_MEM_REGS:
		var data []byte
		data, err = m.write(int(m.I), int(x)+1)
		if err != nil {
			return
		}
		copy(data, v[:x+1])
	case OP_LD_REGS_MEM:
		var data []byte
		data, err = m.read(int(m.I), int(x)+1)
		if err != nil {
			return
		}
		copy(v[:x+1], data)
	default:
		// Not reachable from Decode.
		err = ErrUnknownOpcode(0)
		return
	}

	m.Ticks++

	return
}

// firstKey returns the lowest numbered pressed key.
func (m *Machine) firstKey() (key byte, ok bool) {
	for n, pressed := range m.Keypad {
		if pressed {
			return byte(n), true
		}
	}

	return
}

// draw XORs an n row sprite from memory at I onto the framebuffer, with
// its top left corner at (vx, vy). Every pixel wraps around the screen
// edges. VF is set to 1 if any lit pixel was turned off.
func (m *Machine) draw(vx, vy byte, n byte) (err error) {
	rows, err := m.read(int(m.I), int(n))
	if err != nil {
		return
	}

	x0 := int(vx) % VIDEO_WIDTH
	y0 := int(vy) % VIDEO_HEIGHT

	collision := false
	for row, bits := range rows {
		y := (y0 + row) % VIDEO_HEIGHT
		for col := range SPRITE_WIDTH {
			if bits&(0x80>>col) == 0 {
				continue
			}
			x := (x0 + col) % VIDEO_WIDTH
			cell := &m.Video[y*VIDEO_WIDTH+x]
			collision = collision || *cell
			*cell = !*cell
			m.Redraw = true
		}
	}

	m.V[VF] = flag(collision)

	return
}
