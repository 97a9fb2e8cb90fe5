//go:build linux || darwin

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var termRestore *unix.Termios

// enterRawTerm puts the terminal on stdin into raw mode, so that key
// presses arrive immediately and are not echoed.
func enterRawTerm() (err error) {
	fd := int(os.Stdin.Fd())

	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		err = fmt.Errorf("stdin: %w", err)
		return
	}

	restore := *termios
	termRestore = &restore

	termstate := *termios
	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR | unix.ICRNL | unix.IXON
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	// Block until at least one byte is available.
	termstate.Cc[unix.VMIN] = 1
	termstate.Cc[unix.VTIME] = 0

	err = unix.IoctlSetTermios(fd, ioctlSetTermios, &termstate)
	if err != nil {
		termRestore = nil
		err = fmt.Errorf("stdin: %w", err)
		return
	}

	return
}

// exitRawTerm restores the terminal settings saved by enterRawTerm.
func exitRawTerm() (err error) {
	if termRestore == nil {
		return
	}

	err = unix.IoctlSetTermios(int(os.Stdin.Fd()), ioctlSetTermios, termRestore)
	termRestore = nil

	return
}
