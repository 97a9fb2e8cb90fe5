package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Keymap errors
	ErrLayoutLength    = errors.New(f("layout must have one rune per key"))
	ErrLayoutDuplicate = errors.New(f("layout rune duplicated"))
)
