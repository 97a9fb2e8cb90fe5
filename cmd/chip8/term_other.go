//go:build !linux && !darwin

package main

import (
	"errors"
)

func enterRawTerm() error {
	return errors.New("interactive mode is not supported on this platform, use -frames")
}

func exitRawTerm() error {
	return nil
}
