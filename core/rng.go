package core

import (
	cryptorand "crypto/rand"
	"encoding/binary"
)

// xoshiro256ss is a public-domain xoshiro256** generator (Blackman &
// Vigna), seeded once from a shared source and then long-jumped a
// distinct number of times per worker so every worker's stream is
// disjoint from every other's.
type xoshiro256ss struct {
	s [4]uint64
}

func seedXoshiro() xoshiro256ss {
	var buf [32]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		panic("forkjoin: failed to seed rng: " + err.Error())
	}
	var r xoshiro256ss
	for i := range r.s {
		r.s[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return r
}

func rotl(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// next returns the next 64-bit value and advances the generator state.
func (x *xoshiro256ss) next() uint64 {
	result := rotl(x.s[1]*5, 7) * 9

	t := x.s[1] << 17

	x.s[2] ^= x.s[0]
	x.s[3] ^= x.s[1]
	x.s[1] ^= x.s[2]
	x.s[0] ^= x.s[3]

	x.s[2] ^= t

	x.s[3] = rotl(x.s[3], 45)

	return result
}

// intn returns a value in [0, n). n must be > 0.
func (x *xoshiro256ss) intn(n int) int {
	if n <= 1 {
		return 0
	}
	return int(x.next() % uint64(n))
}

// longJumpCoefficients is equivalent to 2^192 calls to next(); used to
// carve out non-overlapping streams for each worker from a single seed.
var longJumpCoefficients = [4]uint64{
	0x76e15d3efefdcbbf, 0xc5004e441c522fb3,
	0x77710069854ee241, 0x39109bb02acbe635,
}

func (x *xoshiro256ss) longJump() {
	var acc [4]uint64
	for _, coeff := range longJumpCoefficients {
		for b := uint(0); b < 64; b++ {
			if coeff&(1<<b) != 0 {
				acc[0] ^= x.s[0]
				acc[1] ^= x.s[1]
				acc[2] ^= x.s[2]
				acc[3] ^= x.s[3]
			}
			x.next()
		}
	}
	x.s = acc
}
