package io

import (
	"bytes"
	"io"

	"github.com/ezrec/chip8/machine"
)

const (
	ANSI_CLEAR  = "\x1b[2J"   // Erase the screen.
	ANSI_HOME   = "\x1b[H"    // Move the cursor to the top left.
	ANSI_HIDE   = "\x1b[?25l" // Hide the cursor.
	ANSI_SHOW   = "\x1b[?25h" // Show the cursor.
	CELL_ON     = "██"
	CELL_OFF    = "  "
	LINE_ENDING = "\r\n" // Raw terminals do not translate newlines.
)

// Framebuffer is a source of pixels with a change flag.
type Framebuffer interface {
	Pixel(x, y int) bool
	ConsumeRedraw() bool
}

var _ Framebuffer = (*machine.Machine)(nil)

// Display renders a framebuffer to a terminal, two characters per pixel.
type Display struct {
	Output io.Writer // Terminal output.
	On     string    // Text for a lit pixel. If empty, CELL_ON is used.
	Off    string    // Text for a dark pixel. If empty, CELL_OFF is used.
	Status string    // Line written below the framebuffer.

	started bool
	buffer  bytes.Buffer
}

// Draw writes the framebuffer if it has changed since the last Draw.
// Returns true if anything was written.
func (d *Display) Draw(fb Framebuffer) (drawn bool, err error) {
	if !fb.ConsumeRedraw() {
		return
	}

	on, off := d.On, d.Off
	if len(on) == 0 {
		on = CELL_ON
	}
	if len(off) == 0 {
		off = CELL_OFF
	}

	d.buffer.Reset()
	if !d.started {
		d.buffer.WriteString(ANSI_HIDE + ANSI_CLEAR)
		d.started = true
	}
	d.buffer.WriteString(ANSI_HOME)

	for y := range machine.VIDEO_HEIGHT {
		for x := range machine.VIDEO_WIDTH {
			if fb.Pixel(x, y) {
				d.buffer.WriteString(on)
			} else {
				d.buffer.WriteString(off)
			}
		}
		d.buffer.WriteString(LINE_ENDING)
	}
	d.buffer.WriteString(d.Status)

	_, err = d.Output.Write(d.buffer.Bytes())
	if err != nil {
		return
	}

	drawn = true
	return
}

// Close restores the cursor, and moves it below the framebuffer.
func (d *Display) Close() (err error) {
	if !d.started {
		return
	}

	d.started = false
	_, err = io.WriteString(d.Output, LINE_ENDING+ANSI_SHOW)
	return
}
