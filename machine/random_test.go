package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandom(t *testing.T) {
	assert := assert.New(t)

	a := NewRandom(1234)
	b := NewRandom(1234)

	var seq_a, seq_b []byte
	for range 64 {
		seq_a = append(seq_a, a.Byte())
		seq_b = append(seq_b, b.Byte())
	}
	assert.Equal(seq_a, seq_b)

	// 64 bytes from a uniform source are not all the same.
	distinct := map[byte]bool{}
	for _, v := range seq_a {
		distinct[v] = true
	}
	assert.Greater(len(distinct), 1)
}

func TestSequence(t *testing.T) {
	assert := assert.New(t)

	empty := &Sequence{}
	assert.Equal(byte(0), empty.Byte())

	seq := &Sequence{Data: []byte{1, 2, 3}}
	var got []byte
	for range 7 {
		got = append(got, seq.Byte())
	}
	assert.Equal([]byte{1, 2, 3, 1, 2, 3, 1}, got)
}
