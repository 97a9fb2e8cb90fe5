package io

import (
	"fmt"
	"unicode"

	"github.com/ezrec/chip8/machine"
)

const (
	KEY_HOLD       = 6                  // Default frames a key stays down after a press.
	LAYOUT_DEFAULT = "x123qweasdzc4rfv" // Runes for keys 0 through F.
)

// KeySetter receives keypad state.
type KeySetter interface {
	SetKey(key byte, pressed bool)
}

var _ KeySetter = (*machine.Machine)(nil)

// ParseLayout builds a rune to key table from a layout string, which must
// hold exactly one distinct rune for each key, in key order.
// Letters match in either case.
func ParseLayout(layout string) (keys map[rune]byte, err error) {
	runes := []rune(layout)
	if len(runes) != machine.KEY_COUNT {
		err = fmt.Errorf("%w: %q", ErrLayoutLength, layout)
		return
	}

	keys = make(map[rune]byte, machine.KEY_COUNT)
	for key, r := range runes {
		r = unicode.ToLower(r)
		if _, ok := keys[r]; ok {
			keys = nil
			err = fmt.Errorf("%w: %q", ErrLayoutDuplicate, r)
			return
		}
		keys[r] = byte(key)
	}

	return
}

// Keymap converts terminal key presses into keypad state.
//
// Terminals report key presses, but never key releases. A pressed key is
// held down for Hold frames after its last press, which is long enough for
// the terminal auto-repeat to keep it down while the key is held.
type Keymap struct {
	Hold int           // Frames a key stays down. If zero, KEY_HOLD is used.
	Keys map[rune]byte // Rune to key table. If nil, LAYOUT_DEFAULT is used.

	held [machine.KEY_COUNT]int // Frames remaining for each key.
}

// Press presses the key mapped to r. Returns false if r is not mapped.
func (km *Keymap) Press(r rune) (ok bool) {
	if km.Keys == nil {
		km.Keys, _ = ParseLayout(LAYOUT_DEFAULT)
	}

	key, ok := km.Keys[unicode.ToLower(r)]
	if !ok {
		return
	}

	hold := km.Hold
	if hold <= 0 {
		hold = KEY_HOLD
	}
	km.held[key] = hold

	return
}

// Pressed returns true if the key is currently held.
func (km *Keymap) Pressed(key byte) bool {
	return int(key) < machine.KEY_COUNT && km.held[key] > 0
}

// Release updates the keypad for the next frame, and counts down the held
// keys. Keys whose hold has run out are released.
func (km *Keymap) Release(set KeySetter) {
	for key, frames := range km.held {
		set.SetKey(byte(key), frames > 0)
		if frames > 0 {
			km.held[key]--
		}
	}
}

// Reset releases all keys.
func (km *Keymap) Reset() {
	clear(km.held[:])
}
