package io

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/machine"
)

type failWriter struct{}

func (failWriter) Write(data []byte) (int, error) {
	return 0, errors.New("write failure")
}

func TestDisplay(t *testing.T) {
	assert := assert.New(t)

	m := machine.NewMachine()
	m.Video[0] = true
	m.Video[machine.VIDEO_WIDTH+1] = true

	out := &bytes.Buffer{}
	d := &Display{Output: out, On: "#", Off: ".", Status: "ok"}

	drawn, err := d.Draw(m)
	assert.NoError(err)
	assert.True(drawn)

	text := out.String()
	assert.True(strings.HasPrefix(text, ANSI_HIDE+ANSI_CLEAR+ANSI_HOME))
	assert.True(strings.HasSuffix(text, "ok"))

	rows := strings.Split(strings.TrimPrefix(text, ANSI_HIDE+ANSI_CLEAR+ANSI_HOME), LINE_ENDING)
	assert.Len(rows, machine.VIDEO_HEIGHT+1)
	assert.Equal("#"+strings.Repeat(".", machine.VIDEO_WIDTH-1), rows[0])
	assert.Equal(".#"+strings.Repeat(".", machine.VIDEO_WIDTH-2), rows[1])
	assert.Equal(strings.Repeat(".", machine.VIDEO_WIDTH), rows[2])

	// Nothing changed.
	out.Reset()
	drawn, err = d.Draw(m)
	assert.NoError(err)
	assert.False(drawn)
	assert.Equal(0, out.Len())

	// Later frames only home the cursor.
	m.Redraw = true
	drawn, err = d.Draw(m)
	assert.NoError(err)
	assert.True(drawn)
	assert.True(strings.HasPrefix(out.String(), ANSI_HOME))

	out.Reset()
	assert.NoError(d.Close())
	assert.Equal(LINE_ENDING+ANSI_SHOW, out.String())

	out.Reset()
	assert.NoError(d.Close())
	assert.Equal(0, out.Len())
}

func TestDisplay_Cells(t *testing.T) {
	assert := assert.New(t)

	m := machine.NewMachine()
	m.Video[machine.VIDEO_WIDTH-1] = true

	out := &bytes.Buffer{}
	d := &Display{Output: out}

	_, err := d.Draw(m)
	assert.NoError(err)

	rows := strings.Split(out.String(), LINE_ENDING)
	assert.True(strings.HasSuffix(rows[0], strings.Repeat(CELL_OFF, machine.VIDEO_WIDTH-1)+CELL_ON))
}

func TestDisplay_WriteError(t *testing.T) {
	assert := assert.New(t)

	m := machine.NewMachine()
	d := &Display{Output: failWriter{}}

	drawn, err := d.Draw(m)
	assert.Error(err)
	assert.False(drawn)
}
