package machine

import (
	"math/rand/v2"
)

// ByteSource supplies uniformly distributed random bytes to the RND
// instruction.
type ByteSource interface {
	Byte() byte
}

// Random is a ByteSource backed by a seeded PCG generator. The same seed
// always yields the same sequence.
type Random struct {
	rng *rand.Rand
}

var _ ByteSource = (*Random)(nil)

// NewRandom creates a random byte source from a seed.
func NewRandom(seed uint64) *Random {
	return &Random{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *Random) Byte() byte {
	return byte(r.rng.Uint32())
}

// Sequence is a ByteSource that repeats a fixed list of bytes.
// An empty Sequence always returns zero.
type Sequence struct {
	Data  []byte
	index int
}

var _ ByteSource = (*Sequence)(nil)

func (s *Sequence) Byte() (value byte) {
	if len(s.Data) == 0 {
		return
	}

	value = s.Data[s.index%len(s.Data)]
	s.index++
	return
}
