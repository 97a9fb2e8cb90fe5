// Package io adapts a machine to a text terminal.
//
// ReadRom loads program images, Keymap turns terminal key presses into
// keypad state, and Display renders the framebuffer with ANSI escapes.
package io
