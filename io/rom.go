package io

import (
	"io"

	"github.com/ezrec/chip8/machine"
)

// ReadRom reads a program image. Images that do not fit in the machine's
// program area are rejected with machine.ErrImageTooLarge.
func ReadRom(r io.Reader) (image []byte, err error) {
	image, err = io.ReadAll(io.LimitReader(r, machine.ROM_LIMIT+1))
	if err != nil {
		image = nil
		return
	}

	if len(image) > machine.ROM_LIMIT {
		image = nil
		err = machine.ErrImageTooLarge
		return
	}

	return
}
